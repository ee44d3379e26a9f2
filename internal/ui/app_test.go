package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hnfeed/internal/config"
	"github.com/abelbrown/hnfeed/internal/feed"
	"github.com/abelbrown/hnfeed/internal/model"
)

// fakeGateway serves canned pages and records calls.
type fakeGateway struct {
	pages    map[model.FeedType]map[int][]model.Item
	comments map[string][]model.Comment
	err      error
	calls    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		pages:    map[model.FeedType]map[int][]model.Item{},
		comments: map[string][]model.Comment{},
	}
}

func (g *fakeGateway) set(ft model.FeedType, page int, ids ...int) {
	if g.pages[ft] == nil {
		g.pages[ft] = map[int][]model.Item{}
	}
	out := make([]model.Item, len(ids))
	for i, id := range ids {
		out[i] = model.Item{
			ID:    model.FormatID(id),
			Title: fmt.Sprintf("Story %d", id),
			By:    "pg",
			Time:  time.Now().Add(-time.Hour).Unix(),
			Type:  model.TypeStory,
			Kids:  []int{},
		}
	}
	g.pages[ft][page] = out
}

func (g *fakeGateway) LoadItems(_ context.Context, ft model.FeedType, page int) ([]model.Item, error) {
	g.calls = append(g.calls, fmt.Sprintf("load %s %d", ft, page))
	if g.err != nil {
		return nil, g.err
	}
	return g.pages[ft][page], nil
}

func (g *fakeGateway) FetchComments(_ context.Context, id string) ([]model.Comment, error) {
	g.calls = append(g.calls, "comments "+id)
	if g.err != nil {
		return nil, g.err
	}
	return g.comments[id], nil
}

// testClock is a settable clock for the scroll throttle.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestApp(gw *fakeGateway, clock *testClock) App {
	app := NewAppWithConfig(AppConfig{
		Gateway: gw,
		Feed:    config.DefaultConfig().Feed,
		UI:      config.UIConfig{ShowScores: true},
		Now:     clock.now,
	})
	app.ready = true
	app.width = 100
	app.height = 30
	return app
}

// deliver executes cmd, which must produce a ResultMsg, and feeds the
// result back into the app.
func deliver(t *testing.T, app App, cmd tea.Cmd) (App, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(ResultMsg)
	if !ok {
		t.Fatalf("expected ResultMsg, got %T", msg)
	}
	m, next := app.Update(msg)
	return m.(App), next
}

// started runs Init and completes the initial load.
func started(t *testing.T, gw *fakeGateway, clock *testClock) App {
	t.Helper()
	app := newTestApp(gw, clock)
	if cmd := app.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	req := &feed.Request{Kind: feed.RequestInitial, Gen: app.ctrl.Generation(), Feed: app.ctrl.Type(), Page: 1}
	app, _ = deliver(t, app, app.run(req))
	return app
}

func press(app App, key string) (App, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, cmd := app.Update(msg)
	return m.(App), cmd
}

func TestAppInitialLoad(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1, 2, 3)
	clock := &testClock{t: time.Unix(1700000000, 0)}

	app := newTestApp(gw, clock)
	app.Init()
	if !app.Controller().Awaiting() {
		t.Error("Init should start the initial load")
	}
	if !strings.Contains(app.View(), "Loading Latest Stories") {
		t.Errorf("empty feed should show the loading placeholder, got:\n%s", app.View())
	}

	req := &feed.Request{Kind: feed.RequestInitial, Gen: app.ctrl.Generation(), Feed: model.FeedNew, Page: 1}
	app, _ = deliver(t, app, app.run(req))

	if app.FeedView().Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", app.FeedView().Len())
	}
	view := app.View()
	if !strings.Contains(view, "Story 1") || !strings.Contains(view, "by pg") {
		t.Errorf("view should render nodes, got:\n%s", view)
	}
}

func TestAppNavigation(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1, 2, 3, 4, 5, 6, 7, 8)
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := started(t, gw, clock)

	app, _ = press(app, "j")
	if app.Cursor() != 1 {
		t.Errorf("j should move cursor to 1, got %d", app.Cursor())
	}
	app, _ = press(app, "k")
	if app.Cursor() != 0 {
		t.Errorf("k should move cursor to 0, got %d", app.Cursor())
	}
	app, _ = press(app, "k")
	if app.Cursor() != 0 {
		t.Errorf("k at top should keep cursor at 0, got %d", app.Cursor())
	}
	app, _ = press(app, "down")
	if app.Cursor() != 1 {
		t.Errorf("down should move cursor to 1, got %d", app.Cursor())
	}
	app, _ = press(app, "G")
	if app.Cursor() != 7 {
		t.Errorf("G should move cursor to 7, got %d", app.Cursor())
	}
	app, _ = press(app, "g")
	if app.Cursor() != 0 {
		t.Errorf("g should move cursor to 0, got %d", app.Cursor())
	}
}

func TestAppScrollNearBottomLoadsMore(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1, 2, 3, 4, 5)
	gw.set(model.FeedNew, 2, 6, 7)
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := started(t, gw, clock)

	// cursor 1 of 5: three nodes below, not near the bottom yet
	app, cmd := press(app, "j")
	if cmd != nil {
		t.Error("scroll away from the bottom should not load")
	}

	clock.advance(600 * time.Millisecond)
	app, cmd = press(app, "j")
	if cmd == nil {
		t.Fatal("scroll near the bottom should load more")
	}
	if !app.FeedView().Loading() {
		t.Error("load-more indicator should be shown")
	}
	if !strings.Contains(app.View(), "Loading more") {
		t.Error("view should show the loading indicator")
	}

	app, _ = deliver(t, app, cmd)
	if app.FeedView().Len() != 7 {
		t.Errorf("expected 7 nodes after load more, got %d", app.FeedView().Len())
	}
	if app.Controller().Page() != 2 {
		t.Errorf("page = %d, want 2", app.Controller().Page())
	}
	if app.FeedView().Loading() {
		t.Error("indicator should be hidden after completion")
	}
}

func TestAppScrollThrottled(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1, 2, 3)
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := started(t, gw, clock)

	loads := 0
	for i := 0; i < 10; i++ {
		var cmd tea.Cmd
		app, cmd = press(app, "j")
		if cmd != nil {
			loads++
			app, _ = deliver(t, app, cmd)
		}
		clock.advance(10 * time.Millisecond)
	}
	if loads != 1 {
		t.Errorf("10 scrolls within 100ms should load once, got %d", loads)
	}

	clock.advance(600 * time.Millisecond)
	if _, cmd := press(app, "j"); cmd == nil {
		t.Error("scroll after the throttle window should load again")
	}
}

func TestAppTabSwitch(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1, 2, 3)
	gw.set(model.FeedJob, 1, 40, 41)
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := started(t, gw, clock)
	app, _ = press(app, "j")

	app, cmd := press(app, "2")
	if app.Controller().Type() != model.FeedJob {
		t.Fatalf("type = %s, want job", app.Controller().Type())
	}
	if app.Cursor() != 0 || app.FeedView().Len() != 0 {
		t.Error("tab switch should reset the cursor and clear the feed")
	}
	app, _ = deliver(t, app, cmd)
	if app.FeedView().Len() != 2 {
		t.Errorf("expected 2 job nodes, got %d", app.FeedView().Len())
	}

	if _, cmd := press(app, "2"); cmd != nil {
		t.Error("selecting the active tab should be a no-op")
	}

	app, _ = press(app, "tab")
	if app.Controller().Type() != model.FeedPoll {
		t.Errorf("tab should cycle to poll, got %s", app.Controller().Type())
	}
}

func TestAppPollAndConsumePending(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1, 2)
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := started(t, gw, clock)

	gw.set(model.FeedNew, 1, 3, 1, 2)
	m, cmd := app.Update(PollTickMsg{})
	app = m.(App)
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("poll tick should batch the request with the next tick, got %T", cmd())
	}
	app, _ = deliver(t, app, batch[0])

	if app.FeedView().Pending() != 1 {
		t.Errorf("banner count = %d, want 1", app.FeedView().Pending())
	}
	if !strings.Contains(app.View(), "1 new story available") {
		t.Errorf("view should show the pending banner, got:\n%s", app.View())
	}
	if app.FeedView().Len() != 2 {
		t.Error("poll tick must not render nodes")
	}

	app, _ = press(app, "n")
	items := app.FeedView().Items()
	if len(items) != 3 || items[0].ID != "3" {
		t.Errorf("pending should be on top, got %v", items)
	}
	if app.FeedView().Pending() != 0 {
		t.Error("banner should be hidden after consuming")
	}
}

func TestAppErrorBannerExpiry(t *testing.T) {
	gw := newFakeGateway()
	gw.err = errors.New("upstream down")
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := newTestApp(gw, clock)
	app.Init()

	req := &feed.Request{Kind: feed.RequestInitial, Gen: app.ctrl.Generation(), Feed: model.FeedNew, Page: 1}
	app, timer := deliver(t, app, app.run(req))
	if timer == nil {
		t.Fatal("an error banner should schedule its expiry")
	}
	if app.FeedView().Error() != feed.MsgInitialLoadFailed {
		t.Errorf("banner = %q", app.FeedView().Error())
	}

	// second failure replaces the banner; the first expiry must not hide it
	app, _ = press(app, "r")
	req = &feed.Request{Kind: feed.RequestInitial, Gen: app.ctrl.Generation(), Feed: model.FeedNew, Page: 1}
	app, _ = deliver(t, app, app.run(req))

	m, _ := app.Update(errorExpiredMsg{seq: 1})
	app = m.(App)
	if app.FeedView().Error() == "" {
		t.Error("an older expiry should not dismiss a newer banner")
	}
	m, _ = app.Update(errorExpiredMsg{seq: 2})
	app = m.(App)
	if app.FeedView().Error() != "" {
		t.Error("matching expiry should dismiss the banner")
	}
}

func TestAppToggleComments(t *testing.T) {
	gw := newFakeGateway()
	gw.set(model.FeedNew, 1, 1)
	gw.pages[model.FeedNew][1][0].Kids = []int{10}
	gw.comments["1"] = []model.Comment{{ID: "10", By: "dang", Text: "Fair point &amp; well made.<p>Second para", Type: model.TypeComment}}
	clock := &testClock{t: time.Unix(1700000000, 0)}
	app := started(t, gw, clock)

	app, cmd := press(app, "c")
	if th, ok := app.FeedView().Thread("1"); !ok || th.State != feed.ThreadLoading {
		t.Fatalf("c should expand a loading thread, got %+v", th)
	}
	app, _ = deliver(t, app, cmd)

	view := app.View()
	if !strings.Contains(view, "dang") || !strings.Contains(view, "Fair point & well made.") {
		t.Errorf("thread should render comments, got:\n%s", view)
	}

	app, cmd = press(app, "enter")
	if cmd != nil || app.FeedView().CommentsExpanded("1") {
		t.Error("enter on an expanded node should collapse without a request")
	}
}

func TestAppQuit(t *testing.T) {
	app := newTestApp(newFakeGateway(), &testClock{})
	_, cmd := press(app, "q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestAppWindowSize(t *testing.T) {
	app := NewAppWithConfig(AppConfig{})
	if app.View() != "Loading..." {
		t.Error("view before the first size message should be a placeholder")
	}
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = m.(App)
	if !app.ready || app.width != 120 || app.height != 40 {
		t.Error("window size should be recorded")
	}
}
