package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hnfeed/internal/feed"
	"github.com/abelbrown/hnfeed/internal/model"
)

// Notices shown inside an expanded thread.
const (
	noticeCommentsLoading = "Loading comments..."
	noticeNoComments      = "No comments yet."
	noticeTextUnavailable = "Comment text unavailable"
)

// FeedView holds the rendered feed: one node per item, the expanded comment
// threads, and the banner state. It implements feed.View.
type FeedView struct {
	items   []model.Item
	threads map[string]feed.Thread

	loading bool
	pending int

	errMsg   string
	errSeq   int
	errArmed bool
}

var _ feed.View = (*FeedView)(nil)

// NewFeedView returns an empty view.
func NewFeedView() *FeedView {
	return &FeedView{threads: make(map[string]feed.Thread)}
}

func (v *FeedView) Clear() {
	v.items = nil
	v.threads = make(map[string]feed.Thread)
}

func (v *FeedView) Append(items ...model.Item) {
	v.items = append(v.items, items...)
}

func (v *FeedView) Prepend(items ...model.Item) {
	merged := make([]model.Item, 0, len(items)+len(v.items))
	merged = append(merged, items...)
	v.items = append(merged, v.items...)
}

func (v *FeedView) SetLoading(on bool) { v.loading = on }

func (v *FeedView) SetPending(count int) { v.pending = count }

// ShowError replaces the banner text and arms a new expiry.
func (v *FeedView) ShowError(msg string) {
	v.errMsg = msg
	v.errSeq++
	v.errArmed = true
}

func (v *FeedView) ExpandComments(id string, t feed.Thread) { v.threads[id] = t }

func (v *FeedView) CollapseComments(id string) { delete(v.threads, id) }

func (v *FeedView) CommentsExpanded(id string) bool {
	_, ok := v.threads[id]
	return ok
}

// Len returns the number of item nodes.
func (v *FeedView) Len() int { return len(v.items) }

// Items returns the item nodes in display order.
func (v *FeedView) Items() []model.Item { return v.items }

// Item returns the node at i.
func (v *FeedView) Item(i int) (model.Item, bool) {
	if i < 0 || i >= len(v.items) {
		return model.Item{}, false
	}
	return v.items[i], true
}

// Thread returns the expanded thread under id.
func (v *FeedView) Thread(id string) (feed.Thread, bool) {
	t, ok := v.threads[id]
	return t, ok
}

// Loading reports whether the load-more indicator is shown.
func (v *FeedView) Loading() bool { return v.loading }

// Pending returns the count shown in the banner; 0 when hidden.
func (v *FeedView) Pending() int { return v.pending }

// Error returns the banner text, empty when no banner is shown.
func (v *FeedView) Error() string { return v.errMsg }

// takeErrorTimer returns the seq of a banner shown since the last call.
func (v *FeedView) takeErrorTimer() (int, bool) {
	if !v.errArmed {
		return 0, false
	}
	v.errArmed = false
	return v.errSeq, true
}

// dismissError hides the banner if seq is still the one on screen. A newer
// banner keeps its own expiry.
func (v *FeedView) dismissError(seq int) bool {
	if seq != v.errSeq || v.errMsg == "" {
		return false
	}
	v.errMsg = ""
	return true
}

// renderOptions controls how nodes are drawn.
type renderOptions struct {
	cursor     int
	width      int
	height     int
	showScores bool
}

// Render draws the nodes that fit in height lines, scrolled so the cursor
// node is visible.
func (v *FeedView) Render(o renderOptions) string {
	if o.height < 1 {
		o.height = 1
	}
	var lines []string
	cursorStart, cursorEnd := 0, 0
	for i, it := range v.items {
		if i == o.cursor {
			cursorStart = len(lines)
		}
		lines = append(lines, v.renderNode(i, it, i == o.cursor, o)...)
		if i == o.cursor {
			cursorEnd = len(lines)
		}
	}

	offset := 0
	if cursorEnd > o.height {
		offset = cursorEnd - o.height
	}
	if cursorStart < offset {
		offset = cursorStart
	}
	end := offset + o.height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[offset:end], "\n")
}

func (v *FeedView) renderNode(i int, it model.Item, selected bool, o renderOptions) []string {
	rank := fmt.Sprintf("%3d.", i+1)
	host := hostOf(it.URL)

	titleWidth := o.width - lipgloss.Width(rank) - 4
	if host != "" {
		titleWidth -= len(host) + 3
	}
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncateRunes(it.Title, titleWidth)
	if title == "" {
		title = "(untitled)"
	}

	style := NormalItem
	if selected {
		style = SelectedItem
	}
	head := rank + style.Render(title)
	if host != "" {
		head += DomainStyle.Render("(" + host + ")")
	}

	lines := []string{head, MetaItem.Render(metaLine(it, o.showScores))}
	if t, ok := v.threads[it.ID]; ok {
		lines = append(lines, renderThread(t, o.width)...)
	}
	return lines
}

// metaLine renders "N points by X | 3 hours ago | M comments".
func metaLine(it model.Item, showScores bool) string {
	var parts []string
	by := ""
	if showScores && it.Type != model.TypeJob {
		by = plural(it.Score, "point") + " "
	}
	if it.By != "" {
		by += "by " + it.By
	}
	if by = strings.TrimSpace(by); by != "" {
		parts = append(parts, by)
	}
	parts = append(parts, ago(it.Time))
	if it.Type != model.TypeJob {
		parts = append(parts, plural(len(it.Kids), "comment"))
	}
	return strings.Join(parts, " | ")
}

func renderThread(t feed.Thread, width int) []string {
	switch t.State {
	case feed.ThreadLoading:
		return []string{CommentNotice.Render(noticeCommentsLoading)}
	case feed.ThreadEmpty:
		return []string{CommentNotice.Render(noticeNoComments)}
	case feed.ThreadFailed:
		return []string{ErrorStyle.PaddingLeft(6).Render(feed.MsgCommentsFailed)}
	}

	bodyWidth := width - 8
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	var lines []string
	for _, c := range t.Comments {
		author := c.By
		if author == "" {
			author = "[deleted]"
		}
		lines = append(lines, CommentAuthor.Render(author+" | "+ago(c.Time)))
		text := plainText(c.Text)
		if strings.TrimSpace(text) == "" {
			text = noticeTextUnavailable
		}
		body := CommentBody.Width(bodyWidth).Render(text)
		lines = append(lines, strings.Split(body, "\n")...)
	}
	return lines
}
