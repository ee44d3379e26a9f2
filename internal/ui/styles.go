package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("208") // Orange
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196") // Red
)

// SelectedItem style for the title of the highlighted node.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected titles.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// MetaItem style for the "by X | time | N comments" line.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	PaddingLeft(3)

// DomainStyle for the link host after a title.
var DomainStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// TabActive and TabInactive render the feed tab bar.
var (
	TabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(colorPrimary).
			Padding(0, 1)

	TabInactive = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Padding(0, 1)
)

// CommentAuthor style for the header line of a comment.
var CommentAuthor = lipgloss.NewStyle().
	Foreground(colorHighlight).
	PaddingLeft(6)

// CommentBody style for comment text.
var CommentBody = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	PaddingLeft(6)

// CommentNotice style for the loading, empty and failed thread states.
var CommentNotice = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true).
	PaddingLeft(6)

// PendingBanner style for the "new stories" notice.
var PendingBanner = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorSuccess).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for the transient error banner.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// HelpStyle for placeholder text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// LoadingStyle for the load-more indicator.
var LoadingStyle = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Padding(0, 1)

// DebugPanel style for the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
