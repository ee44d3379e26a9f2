package feed

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/abelbrown/hnfeed/internal/model"
)

// fakeView records what the controller renders.
type fakeView struct {
	nodes    []string
	loading  bool
	pending  int
	errors   []string
	threads  map[string]Thread
	clears   int
	prepends int
}

func newFakeView() *fakeView {
	return &fakeView{threads: map[string]Thread{}}
}

func (v *fakeView) Clear() {
	v.nodes = nil
	v.threads = map[string]Thread{}
	v.clears++
}

func (v *fakeView) Append(items ...model.Item) {
	for _, it := range items {
		v.nodes = append(v.nodes, it.ID)
	}
}

func (v *fakeView) Prepend(items ...model.Item) {
	ids := make([]string, 0, len(items)+len(v.nodes))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	v.nodes = append(ids, v.nodes...)
	v.prepends++
}

func (v *fakeView) SetLoading(on bool)   { v.loading = on }
func (v *fakeView) SetPending(count int) { v.pending = count }
func (v *fakeView) ShowError(msg string) { v.errors = append(v.errors, msg) }

func (v *fakeView) ExpandComments(id string, t Thread) { v.threads[id] = t }
func (v *fakeView) CollapseComments(id string)         { delete(v.threads, id) }
func (v *fakeView) CommentsExpanded(id string) bool {
	_, ok := v.threads[id]
	return ok
}

func items(ids ...int) []model.Item {
	out := make([]model.Item, len(ids))
	for i, id := range ids {
		out[i] = model.Item{ID: model.FormatID(id), Title: fmt.Sprintf("Item %d", id), Type: model.TypeStory, Kids: []int{}}
	}
	return out
}

func newTestController() (*Controller, *fakeView) {
	v := newFakeView()
	return NewController(v, Options{}), v
}

// loaded runs InitialLoad and completes it with ids.
func loaded(t *testing.T, c *Controller, ids ...int) {
	t.Helper()
	req := c.InitialLoad()
	if req == nil {
		t.Fatal("InitialLoad should return a request")
	}
	c.Complete(Result{Request: *req, Items: items(ids...)})
}

func TestInitRequestsFirstPageOfDefaultFeed(t *testing.T) {
	c, v := newTestController()

	req := c.Init()
	if req == nil {
		t.Fatal("Init should return a request")
	}
	if req.Kind != RequestInitial || req.Feed != model.FeedNew || req.Page != 1 {
		t.Errorf("unexpected request: %+v", req)
	}
	if v.clears != 1 {
		t.Errorf("InitialLoad should clear the view once, got %d", v.clears)
	}
	if !c.Awaiting() {
		t.Error("initial load should be awaited until it completes")
	}

	c.Complete(Result{Request: *req, Items: items(1, 2, 3)})
	if c.Awaiting() {
		t.Error("completed initial load should not be awaited")
	}
	if fmt.Sprint(v.nodes) != "[1 2 3]" {
		t.Errorf("nodes = %v, want [1 2 3]", v.nodes)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	c, v := newTestController()
	it := items(7)[0]

	if n := c.Render([]model.Item{it}, false); n != 1 {
		t.Errorf("first render should render 1, got %d", n)
	}
	if !c.Seen().Has(it) {
		t.Error("item should be in Seen after first render")
	}
	if n := c.Render([]model.Item{it, it}, false); n != 0 {
		t.Errorf("second render should render 0, got %d", n)
	}
	if len(v.nodes) != 1 {
		t.Errorf("expected exactly one node, got %v", v.nodes)
	}
}

func TestRenderDuplicatesWithinBatch(t *testing.T) {
	c, v := newTestController()
	c.Render(items(1, 2, 1, 3, 2), false)
	if fmt.Sprint(v.nodes) != "[1 2 3]" {
		t.Errorf("nodes = %v, want [1 2 3]", v.nodes)
	}
}

func TestInitialLoadFailureShowsError(t *testing.T) {
	c, v := newTestController()
	req := c.Init()
	c.Complete(Result{Request: *req, Err: errors.New("boom")})

	if len(v.errors) != 1 || v.errors[0] != MsgInitialLoadFailed {
		t.Errorf("errors = %v", v.errors)
	}
	if len(v.nodes) != 0 {
		t.Errorf("feed should stay empty, got %v", v.nodes)
	}
	// recoverable: a retry works
	loaded(t, c, 1)
	if len(v.nodes) != 1 {
		t.Errorf("retry should render, got %v", v.nodes)
	}
}

func TestLoadMoreAdvancesPage(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1, 2)

	req := c.LoadMore()
	if req == nil {
		t.Fatal("LoadMore should return a request")
	}
	if req.Page != 2 || req.Kind != RequestMore {
		t.Errorf("unexpected request: %+v", req)
	}
	if !c.Loading() || !v.loading {
		t.Error("loading flag and indicator should be on while in flight")
	}
	if again := c.LoadMore(); again != nil {
		t.Error("LoadMore while loading should be a no-op")
	}
	if c.Page() != 2 {
		t.Errorf("guarded LoadMore must not touch page, got %d", c.Page())
	}

	c.Complete(Result{Request: *req, Items: items(3, 4)})
	if c.Loading() || v.loading {
		t.Error("loading should be cleared after completion")
	}
	if fmt.Sprint(v.nodes) != "[1 2 3 4]" {
		t.Errorf("nodes = %v", v.nodes)
	}
	if c.Page() != 2 {
		t.Errorf("page = %d, want 2", c.Page())
	}
}

func TestLoadMoreFailureRollsBackPage(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)
	before := c.Page()

	req := c.LoadMore()
	c.Complete(Result{Request: *req, Err: errors.New("rejected")})

	if c.Page() != before {
		t.Errorf("page after failed LoadMore = %d, want %d", c.Page(), before)
	}
	if c.Loading() || v.loading {
		t.Error("loading should be cleared after a failure too")
	}
	if len(v.errors) != 1 || v.errors[0] != MsgLoadMoreFailed {
		t.Errorf("errors = %v", v.errors)
	}
}

func TestLoadMoreEmptyPageIsNotAnError(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)

	req := c.LoadMore()
	c.Complete(Result{Request: *req, Items: nil})
	if len(v.errors) != 0 {
		t.Errorf("empty page should not surface an error, got %v", v.errors)
	}
	if c.Page() != 2 {
		t.Errorf("page = %d, want 2", c.Page())
	}
}

func TestScrollThrottle(t *testing.T) {
	c, _ := newTestController()
	loaded(t, c, 1)

	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var reqs []*Request
	for i := 0; i < 10; i++ {
		if r := c.Scroll(t0.Add(time.Duration(i)*10*time.Millisecond), true); r != nil {
			reqs = append(reqs, r)
		}
	}
	if len(reqs) != 1 {
		t.Fatalf("10 scrolls within 100ms should trigger 1 LoadMore, got %d", len(reqs))
	}
	c.Complete(Result{Request: *reqs[0], Items: items(2)})

	if r := c.Scroll(t0.Add(600*time.Millisecond), true); r == nil {
		t.Error("scroll after 600ms should trigger another LoadMore")
	}
}

func TestScrollNotNearBottom(t *testing.T) {
	c, _ := newTestController()
	loaded(t, c, 1)

	if r := c.Scroll(time.Now(), false); r != nil {
		t.Error("scroll away from the bottom should not load")
	}
	if c.Page() != 1 {
		t.Errorf("page = %d, want 1", c.Page())
	}
}

func TestScrollWhileLoading(t *testing.T) {
	c, _ := newTestController()
	loaded(t, c, 1)
	t0 := time.Now()

	if r := c.Scroll(t0, true); r == nil {
		t.Fatal("first scroll should load")
	}
	if r := c.Scroll(t0.Add(time.Second), true); r != nil {
		t.Error("scroll while loading should be ignored")
	}
}

func TestPollTickFiltersSeen(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1, 2)

	req := c.PollTick()
	if req == nil {
		t.Fatal("PollTick on new feed should request")
	}
	if req.Feed != model.FeedNew || req.Page != 1 || req.Kind != RequestPoll {
		t.Errorf("unexpected request: %+v", req)
	}
	c.Complete(Result{Request: *req, Items: items(1, 2, 3)})

	pending := c.Pending()
	if len(pending) != 1 || pending[0].ID != "3" {
		t.Errorf("pending = %v, want [3]", pending)
	}
	if v.pending != 1 {
		t.Errorf("banner count = %d, want 1", v.pending)
	}
	if c.Seen().Has(pending[0]) {
		t.Error("poll tick must not add to Seen")
	}
	if len(v.nodes) != 2 {
		t.Errorf("poll tick must not render, got %v", v.nodes)
	}
}

func TestPollTickNothingNew(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1, 2)

	req := c.PollTick()
	c.Complete(Result{Request: *req, Items: items(1, 2)})

	if len(c.Pending()) != 0 {
		t.Errorf("pending = %v, want empty", c.Pending())
	}
	if v.pending != 0 {
		t.Error("banner should stay hidden")
	}
}

func TestPollTickOnlyOnNewFeed(t *testing.T) {
	c, _ := newTestController()
	loaded(t, c, 1)
	c.SwitchTab(model.FeedJob)

	if r := c.PollTick(); r != nil {
		t.Error("PollTick on job feed should be a no-op")
	}
}

func TestPollTickErrorIsSilent(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)

	req := c.PollTick()
	c.Complete(Result{Request: *req, Err: errors.New("offline")})
	if len(v.errors) != 0 {
		t.Errorf("poll errors should not show a banner, got %v", v.errors)
	}
}

func TestConsumePending(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1, 2)

	req := c.PollTick()
	c.Complete(Result{Request: *req, Items: items(4, 3, 1)})

	if n := c.ConsumePending(); n != 2 {
		t.Errorf("ConsumePending rendered %d, want 2", n)
	}
	if fmt.Sprint(v.nodes) != "[3 4 1 2]" {
		t.Errorf("nodes = %v, want each pending item prepended in turn", v.nodes)
	}
	if len(c.Pending()) != 0 || v.pending != 0 {
		t.Error("pending buffer and banner should be cleared")
	}
	if n := c.ConsumePending(); n != 0 || v.prepends != 2 {
		t.Error("ConsumePending with nothing pending should be a no-op")
	}
}

func TestConsumePendingReversesBatch(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1, 2)

	req := c.PollTick()
	c.Complete(Result{Request: *req, Items: items(10, 11, 12)})
	c.ConsumePending()

	if fmt.Sprint(v.nodes) != "[12 11 10 1 2]" {
		t.Errorf("nodes = %v, want [12 11 10 1 2]", v.nodes)
	}
}

func TestPollTickWaitsForInitialLoad(t *testing.T) {
	c, v := newTestController()
	initial := c.Init()

	if r := c.PollTick(); r != nil {
		t.Fatal("PollTick during the initial load should be a no-op")
	}
	c.Complete(Result{Request: *initial, Items: items(1, 2, 3)})

	req := c.PollTick()
	if req == nil {
		t.Fatal("PollTick after the initial load should request page 1")
	}
	c.Complete(Result{Request: *req, Items: items(1, 2, 3)})
	if len(c.Pending()) != 0 || v.pending != 0 {
		t.Errorf("pending = %v banner = %d, want nothing new", c.Pending(), v.pending)
	}
	if fmt.Sprint(v.nodes) != "[1 2 3]" {
		t.Errorf("nodes = %v, want [1 2 3]", v.nodes)
	}
}

func TestTabSwitchResets(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1, 2)
	seenBefore := items(1)[0]

	req := c.LoadMore()
	c.Complete(Result{Request: *req, Items: items(3)})
	poll := c.PollTick()
	c.Complete(Result{Request: *poll, Items: items(9)})
	if len(c.Pending()) != 1 {
		t.Fatal("setup: expected one pending item")
	}

	sw := c.SwitchTab(model.FeedJob)
	if sw == nil {
		t.Fatal("switching to a different tab should load")
	}
	if sw.Feed != model.FeedJob || sw.Page != 1 {
		t.Errorf("unexpected request: %+v", sw)
	}
	if len(c.Pending()) != 0 || v.pending != 0 {
		t.Error("tab switch should clear pending and hide the banner")
	}
	if c.Seen().Has(seenBefore) {
		t.Error("tab switch should reset Seen membership")
	}
	if c.Page() != 1 {
		t.Errorf("page = %d, want 1", c.Page())
	}
	if len(v.nodes) != 0 {
		t.Errorf("view should be cleared, got %v", v.nodes)
	}
}

func TestTabSwitchSameTypeNoop(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)
	gen := c.Generation()

	if r := c.SwitchTab(model.FeedNew); r != nil {
		t.Error("selecting the current tab should be a no-op")
	}
	if c.Generation() != gen || v.clears != 1 {
		t.Error("no-op switch must not reset anything")
	}
	if r := c.SwitchTab(model.FeedType("best")); r != nil {
		t.Error("unknown tab should be ignored")
	}
}

func TestStaleResultsDiscarded(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)
	poll := c.PollTick()
	first := c.InitialLoad()

	// user switches before either settles
	sw := c.SwitchTab(model.FeedJob)

	c.Complete(Result{Request: *first, Items: items(1, 2)})
	c.Complete(Result{Request: *poll, Items: items(5)})
	if len(v.nodes) != 0 {
		t.Errorf("stale initial load should not render, got %v", v.nodes)
	}
	if len(c.Pending()) != 0 || v.pending != 0 {
		t.Error("stale poll should not buffer")
	}

	c.Complete(Result{Request: *sw, Items: items(7)})
	if fmt.Sprint(v.nodes) != "[7]" {
		t.Errorf("nodes = %v, want [7]", v.nodes)
	}
}

func TestStaleLoadMoreReleasesLoading(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)

	more := c.LoadMore()
	sw := c.SwitchTab(model.FeedPoll)
	c.Complete(Result{Request: *sw, Items: items(10)})

	c.Complete(Result{Request: *more, Items: items(2), Err: nil})
	if c.Loading() || v.loading {
		t.Error("stale LoadMore should still release the loading flag")
	}
	if c.Page() != 1 {
		t.Errorf("stale LoadMore must not touch the new session's page, got %d", c.Page())
	}
	if fmt.Sprint(v.nodes) != "[10]" {
		t.Errorf("nodes = %v, want [10]", v.nodes)
	}
}

func TestToggleComments(t *testing.T) {
	c, v := newTestController()
	loaded(t, c, 1)
	post := model.Item{ID: "1", Kids: []int{11, 12}}

	req := c.ToggleComments(post)
	if req == nil || req.Kind != RequestComments || req.PostID != "1" {
		t.Fatalf("first expansion should request comments, got %+v", req)
	}
	if v.threads["1"].State != ThreadLoading {
		t.Errorf("state = %v, want loading", v.threads["1"].State)
	}

	comments := []model.Comment{{ID: "12", Text: "hi"}, {ID: "11", Text: "yo"}}
	c.Complete(Result{Request: *req, Comments: comments})
	if v.threads["1"].State != ThreadLoaded || len(v.threads["1"].Comments) != 2 {
		t.Errorf("thread = %+v", v.threads["1"])
	}

	// collapse
	if r := c.ToggleComments(post); r != nil {
		t.Error("collapse should not request")
	}
	if v.CommentsExpanded("1") {
		t.Error("thread should be collapsed")
	}

	// re-expand from cache
	if r := c.ToggleComments(post); r != nil {
		t.Error("second expansion should reuse the loaded thread")
	}
	if v.threads["1"].State != ThreadLoaded {
		t.Errorf("state = %v, want loaded", v.threads["1"].State)
	}
}

func TestToggleCommentsNoKids(t *testing.T) {
	c, v := newTestController()
	if r := c.ToggleComments(model.Item{ID: "1"}); r != nil {
		t.Error("item without kids has no thread")
	}
	if v.CommentsExpanded("1") {
		t.Error("nothing should expand")
	}
}

func TestToggleCommentsEmptyAndFailed(t *testing.T) {
	c, v := newTestController()
	a := model.Item{ID: "1", Kids: []int{2}}
	b := model.Item{ID: "3", Kids: []int{4}}

	ra := c.ToggleComments(a)
	c.Complete(Result{Request: *ra})
	if v.threads["1"].State != ThreadEmpty {
		t.Errorf("state = %v, want empty", v.threads["1"].State)
	}

	rb := c.ToggleComments(b)
	c.Complete(Result{Request: *rb, Err: errors.New("timeout")})
	if v.threads["3"].State != ThreadFailed {
		t.Errorf("state = %v, want failed", v.threads["3"].State)
	}

	// failures are not cached: collapsing and expanding retries
	c.ToggleComments(b)
	if r := c.ToggleComments(b); r == nil {
		t.Error("expanding after a failure should retry")
	}
}

func TestCommentsCollapsedBeforeLoadStaysCollapsed(t *testing.T) {
	c, v := newTestController()
	post := model.Item{ID: "1", Kids: []int{2}}

	req := c.ToggleComments(post)
	c.ToggleComments(post) // collapse while loading
	c.Complete(Result{Request: *req, Comments: []model.Comment{{ID: "2"}}})

	if v.CommentsExpanded("1") {
		t.Error("a late result should not re-expand a collapsed thread")
	}
	if r := c.ToggleComments(post); r != nil {
		t.Error("the late result should still be cached")
	}
}
