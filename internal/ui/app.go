package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hnfeed/internal/config"
	"github.com/abelbrown/hnfeed/internal/feed"
	"github.com/abelbrown/hnfeed/internal/model"
	"github.com/abelbrown/hnfeed/internal/otel"
)

// Gateway is the data source the App runs controller requests against.
// *fetch.Client satisfies it.
type Gateway interface {
	LoadItems(ctx context.Context, feed model.FeedType, page int) ([]model.Item, error)
	FetchComments(ctx context.Context, postID string) ([]model.Comment, error)
}

// ObsConfig wires observability into the App.
type ObsConfig struct {
	Logger *otel.Logger
	Ring   *otel.RingBuffer
}

// AppConfig holds the App's dependencies.
type AppConfig struct {
	Gateway Gateway
	// Context is cancelled on shutdown; in-flight requests abort with it.
	Context context.Context
	Feed    config.FeedConfig
	UI      config.UIConfig
	Obs     ObsConfig
	// Now is the clock used for scroll throttling. Defaults to time.Now.
	Now func() time.Time
}

// App is the root Bubble Tea model. All controller state is mutated in
// Update; gateway calls run inside commands and come back as ResultMsg.
type App struct {
	ctx    context.Context
	gw     Gateway
	ctrl   *feed.Controller
	view   *FeedView
	logger *otel.Logger
	ring   *otel.RingBuffer
	now    func() time.Time

	spinner spinner.Model

	pollInterval time.Duration
	errorTimeout time.Duration
	nearRows     int
	showScores   bool

	cursor       int
	width        int
	height       int
	ready        bool
	debugVisible bool
}

// NewAppWithConfig creates the App. Zero-valued settings fall back to
// config.DefaultConfig.
func NewAppWithConfig(cfg AppConfig) App {
	defaults := config.DefaultConfig()
	fc := cfg.Feed
	if fc.DefaultType == "" {
		fc.DefaultType = defaults.Feed.DefaultType
	}
	if fc.PollInterval <= 0 {
		fc.PollInterval = defaults.Feed.PollInterval
	}
	if fc.ScrollThrottle <= 0 {
		fc.ScrollThrottle = defaults.Feed.ScrollThrottle
	}
	if fc.ErrorTimeout <= 0 {
		fc.ErrorTimeout = defaults.Feed.ErrorTimeout
	}
	if fc.NearBottomRows <= 0 {
		fc.NearBottomRows = defaults.Feed.NearBottomRows
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Obs.Logger
	if logger == nil {
		logger = otel.NewNullLogger()
	}

	ft := fc.DefaultType
	if !ft.Valid() {
		ft = model.FeedNew
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = LoadingStyle

	view := NewFeedView()
	return App{
		ctx:    cfg.Context,
		gw:     cfg.Gateway,
		view:   view,
		logger: logger,
		ring:   cfg.Obs.Ring,
		now:    cfg.Now,
		ctrl: feed.NewController(view, feed.Options{
			DefaultType:    ft,
			ScrollThrottle: fc.ScrollThrottle.D(),
			Logger:         logger,
		}),
		spinner:      s,
		pollInterval: fc.PollInterval.D(),
		errorTimeout: fc.ErrorTimeout.D(),
		nearRows:     fc.NearBottomRows,
		showScores:   cfg.UI.ShowScores,
	}
}

// Init loads the default feed and starts the poll ticker.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.run(a.ctrl.Init()), a.spinner.Tick, a.pollTick())
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.logger.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindMsgReceived,
			Comp:  "ui",
			Msg:   fmt.Sprintf("%T", msg),
		})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case ResultMsg:
		a.ctrl.Complete(msg.Result)
		a.clampCursor()
		return a, a.errorTimer()

	case PollTickMsg:
		return a, tea.Batch(a.run(a.ctrl.PollTick()), a.pollTick())

	case errorExpiredMsg:
		a.view.dismissError(msg.seq)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	a.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: key})

	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "?":
		a.debugVisible = !a.debugVisible
		return a, nil

	case "1", "2", "3":
		return a.switchTab(model.FeedTypes[int(key[0]-'1')])

	case "tab":
		next := (a.ctrl.Type().Index() + 1) % len(model.FeedTypes)
		return a.switchTab(model.FeedTypes[next])

	case "shift+tab":
		n := len(model.FeedTypes)
		prev := (a.ctrl.Type().Index() + n - 1) % n
		return a.switchTab(model.FeedTypes[prev])

	case "j", "down":
		return a.move(1)

	case "k", "up":
		return a.move(-1)

	case " ", "pgdown":
		return a.move(a.pageRows())

	case "pgup":
		return a.move(-a.pageRows())

	case "g", "home":
		return a.move(-a.cursor)

	case "G", "end":
		return a.move(a.view.Len() - 1 - a.cursor)

	case "c", "enter":
		it, ok := a.view.Item(a.cursor)
		if !ok {
			return a, nil
		}
		return a, a.run(a.ctrl.ToggleComments(it))

	case "n":
		if a.ctrl.ConsumePending() > 0 {
			a.cursor = 0
		}
		return a, nil

	case "r":
		return a.reload()
	}

	return a, nil
}

func (a App) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		return a.move(1)
	case tea.MouseButtonWheelUp:
		return a.move(-1)
	}
	return a, nil
}

// move shifts the cursor by delta nodes. Every movement is a scroll event.
func (a App) move(delta int) (tea.Model, tea.Cmd) {
	a.cursor += delta
	a.clampCursor()
	req := a.ctrl.Scroll(a.now(), a.nearBottom())
	return a, a.run(req)
}

func (a App) switchTab(t model.FeedType) (tea.Model, tea.Cmd) {
	req := a.ctrl.SwitchTab(t)
	if req == nil {
		return a, nil
	}
	a.cursor = 0
	return a, a.run(req)
}

func (a App) reload() (tea.Model, tea.Cmd) {
	a.cursor = 0
	return a, a.run(a.ctrl.InitialLoad())
}

// nearBottom reports whether the cursor is within nearRows nodes of the end
// of a non-empty feed.
func (a App) nearBottom() bool {
	n := a.view.Len()
	return n > 0 && n-1-a.cursor < a.nearRows
}

func (a *App) clampCursor() {
	if a.cursor >= a.view.Len() {
		a.cursor = a.view.Len() - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// pageRows is how many nodes one page key skips; each node is two lines.
func (a App) pageRows() int {
	rows := a.bodyHeight() / 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

// run turns a controller request into a command that performs it against
// the gateway. A nil request yields a nil command.
func (a App) run(req *feed.Request) tea.Cmd {
	if req == nil || a.gw == nil {
		return nil
	}
	r := *req
	ctx, gw := a.ctx, a.gw
	return func() tea.Msg {
		res := feed.Result{Request: r}
		switch r.Kind {
		case feed.RequestComments:
			res.Comments, res.Err = gw.FetchComments(ctx, r.PostID)
		default:
			res.Items, res.Err = gw.LoadItems(ctx, r.Feed, r.Page)
		}
		return ResultMsg{Result: res}
	}
}

func (a App) pollTick() tea.Cmd {
	return tea.Tick(a.pollInterval, func(time.Time) tea.Msg {
		return PollTickMsg{}
	})
}

// errorTimer schedules the expiry of a banner shown during this update.
func (a App) errorTimer() tea.Cmd {
	seq, ok := a.view.takeErrorTimer()
	if !ok {
		return nil
	}
	return tea.Tick(a.errorTimeout, func(time.Time) tea.Msg {
		return errorExpiredMsg{seq: seq}
	})
}

// chromeHeight is the number of lines around the feed body.
func (a App) chromeHeight() int {
	h := 2 // tab bar + status bar
	if a.view.Pending() > 0 {
		h++
	}
	if a.view.Error() != "" {
		h++
	}
	if a.view.Loading() {
		h++
	}
	return h
}

func (a App) bodyHeight() int {
	h := a.height - a.chromeHeight()
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		overlay := debugOverlay(a.ring, a.ctrl.Generation(), a.width, a.height-1)
		if overlay == "" {
			overlay = HelpStyle.Render("No event buffer attached.")
		}
		return lipgloss.JoinVertical(lipgloss.Left, overlay, debugStatusBar(a.width))
	}

	var sections []string
	sections = append(sections, a.renderTabs())
	if n := a.view.Pending(); n > 0 {
		sections = append(sections, PendingBanner.Width(a.width).Render(
			fmt.Sprintf("%s available. Press n to show.", plural(n, "new story"))))
	}
	if msg := a.view.Error(); msg != "" {
		sections = append(sections, ErrorStyle.Width(a.width).Render(msg))
	}
	sections = append(sections, a.renderBody())
	if a.view.Loading() {
		sections = append(sections, LoadingStyle.Render(a.spinner.View()+" Loading more..."))
	}
	sections = append(sections, a.renderStatusBar())
	return strings.Join(sections, "\n")
}

func (a App) renderBody() string {
	h := a.bodyHeight()
	var body string
	switch {
	case a.view.Len() == 0 && a.ctrl.Awaiting():
		body = HelpStyle.Render(a.spinner.View() + " Loading " + a.ctrl.Type().Label() + "...")
	case a.view.Len() == 0:
		body = HelpStyle.Render("Nothing here yet. Press r to reload.")
	default:
		body = a.view.Render(renderOptions{
			cursor:     a.cursor,
			width:      a.width,
			height:     h,
			showScores: a.showScores,
		})
	}
	// pad so the status bar stays at the bottom
	if pad := h - lipgloss.Height(body); pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return body
}

func (a App) renderTabs() string {
	tabs := make([]string, 0, len(model.FeedTypes))
	for i, t := range model.FeedTypes {
		label := fmt.Sprintf("%d %s", i+1, t.Label())
		if t == a.ctrl.Type() {
			tabs = append(tabs, TabActive.Render(label))
		} else {
			tabs = append(tabs, TabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderStatusBar renders the bottom bar with key hints and position.
func (a App) renderStatusBar() string {
	position := fmt.Sprintf(" %d/%d  page %d ", a.cursor+1, a.view.Len(), a.ctrl.Page())
	if a.view.Len() == 0 {
		position = " 0/0 "
	}

	keys := []string{
		StatusBarKey.Render("1-3") + StatusBarText.Render(":feed"),
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("c") + StatusBarText.Render(":comments"),
		StatusBarKey.Render("n") + StatusBarText.Render(":new"),
		StatusBarKey.Render("r") + StatusBarText.Render(":reload"),
		StatusBarKey.Render("?") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := a.width - lipgloss.Width(position) - lipgloss.Width(keyHints) - 2
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(a.width).Render(position + strings.Repeat(" ", padding) + keyHints)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Controller returns the feed controller (for testing).
func (a App) Controller() *feed.Controller {
	return a.ctrl
}

// FeedView returns the rendered view (for testing).
func (a App) FeedView() *FeedView {
	return a.view
}
