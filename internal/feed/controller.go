// Package feed is the feed state machine: current feed type, page, loading
// flag, pending-update buffer and the de-duplication set, plus the View
// contract it renders through.
//
// The controller is synchronous. Every transition that needs I/O returns a
// *Request (nil when the transition is a guarded no-op); the caller runs it
// off the UI goroutine and hands the outcome back through Complete. Requests
// carry the generation they were issued in, and results from an older
// generation are dropped instead of rendered into a feed that has since been
// reset.
package feed

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/hnfeed/internal/model"
	"github.com/abelbrown/hnfeed/internal/otel"
)

// User-facing error messages.
const (
	MsgInitialLoadFailed = "Failed to load initial content. Please try again."
	MsgLoadMoreFailed    = "Failed to load more content. Please try again."
	MsgCommentsFailed    = "Failed to load comments. Please try again."
)

// DefaultScrollThrottle is the minimum spacing between handled scroll events.
const DefaultScrollThrottle = 500 * time.Millisecond

// RequestKind identifies which transition issued a Request.
type RequestKind int

const (
	RequestInitial RequestKind = iota
	RequestMore
	RequestPoll
	RequestComments
)

func (k RequestKind) String() string {
	switch k {
	case RequestInitial:
		return "initial"
	case RequestMore:
		return "more"
	case RequestPoll:
		return "poll"
	case RequestComments:
		return "comments"
	default:
		return "unknown"
	}
}

// Request is an I/O step the caller must perform: LoadItems(Feed, Page)
// for the item kinds, FetchComments(PostID) for RequestComments.
type Request struct {
	Kind   RequestKind
	Gen    uint64
	Feed   model.FeedType
	Page   int
	PostID string
}

// Result is the outcome of a Request.
type Result struct {
	Request  Request
	Items    []model.Item
	Comments []model.Comment
	Err      error
}

// Options configures a Controller.
type Options struct {
	DefaultType    model.FeedType
	ScrollThrottle time.Duration
	Logger         *otel.Logger
}

// Controller owns the feed state. Not safe for concurrent use: all methods
// must be called from the single UI goroutine.
type Controller struct {
	view     View
	logger   *otel.Logger
	throttle *rate.Limiter

	feedType model.FeedType
	page     int
	loading  bool
	awaiting bool
	pending  []model.Item
	seen     *Seen
	gen      uint64

	// threads caches loaded comment threads for the current generation.
	threads map[string]Thread
}

// NewController creates a controller rendering into v.
func NewController(v View, opts Options) *Controller {
	if opts.DefaultType == "" {
		opts.DefaultType = model.FeedNew
	}
	if opts.ScrollThrottle <= 0 {
		opts.ScrollThrottle = DefaultScrollThrottle
	}
	if opts.Logger == nil {
		opts.Logger = otel.NewNullLogger()
	}
	return &Controller{
		view:     v,
		logger:   opts.Logger,
		throttle: rate.NewLimiter(rate.Every(opts.ScrollThrottle), 1),
		feedType: opts.DefaultType,
		page:     1,
		seen:     NewSeen(),
		threads:  make(map[string]Thread),
	}
}

// Type returns the current feed type.
func (c *Controller) Type() model.FeedType { return c.feedType }

// Page returns the last requested page (1-based).
func (c *Controller) Page() int { return c.page }

// Loading reports whether a LoadMore is in flight.
func (c *Controller) Loading() bool { return c.loading }

// Awaiting reports whether the current session's initial load is still in
// flight.
func (c *Controller) Awaiting() bool { return c.awaiting }

// Generation returns the current feed generation.
func (c *Controller) Generation() uint64 { return c.gen }

// Seen returns the de-duplication set of the current session.
func (c *Controller) Seen() *Seen { return c.seen }

// Pending returns a copy of the buffered updates.
func (c *Controller) Pending() []model.Item {
	out := make([]model.Item, len(c.pending))
	copy(out, c.pending)
	return out
}

// Init performs the startup load of the default feed.
func (c *Controller) Init() *Request {
	return c.InitialLoad()
}

// InitialLoad clears the feed, starts a new session and requests page 1.
func (c *Controller) InitialLoad() *Request {
	c.view.Clear()
	c.seen = NewSeen()
	c.threads = make(map[string]Thread)
	c.page = 1
	c.gen++
	c.awaiting = true

	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoad, Page: 1})
	return c.request(RequestInitial, 1)
}

// SwitchTab moves to feed t. Selecting the current feed is a no-op.
func (c *Controller) SwitchTab(t model.FeedType) *Request {
	if t == c.feedType || !t.Valid() {
		return nil
	}
	from := c.feedType
	c.feedType = t
	c.pending = nil
	c.view.SetPending(0)

	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindTab, Msg: fmt.Sprintf("%s -> %s", from, t)})
	return c.InitialLoad()
}

// Scroll handles a scroll event at time now. Events closer together than
// the throttle window are dropped, not queued. A handled event near the
// bottom of the feed triggers LoadMore.
func (c *Controller) Scroll(now time.Time, nearBottom bool) *Request {
	if !c.throttle.AllowN(now, 1) {
		return nil
	}
	if c.loading || !nearBottom {
		return nil
	}
	return c.LoadMore()
}

// LoadMore requests the next page. No-op while a previous LoadMore is in
// flight.
func (c *Controller) LoadMore() *Request {
	if c.loading {
		return nil
	}
	c.loading = true
	c.view.SetLoading(true)
	c.page++

	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadMore, Page: c.page})
	return c.request(RequestMore, c.page)
}

// PollTick requests page 1 of the new feed to look for fresh items. Only
// the new feed is polled, and not while its initial load is in flight.
func (c *Controller) PollTick() *Request {
	if c.feedType != model.FeedNew || c.awaiting {
		return nil
	}
	return c.request(RequestPoll, 1)
}

// ConsumePending renders the buffered updates at the top of the feed.
func (c *Controller) ConsumePending() int {
	if len(c.pending) == 0 {
		return 0
	}
	n := c.Render(c.pending, true)
	c.pending = nil
	c.view.SetPending(0)
	return n
}

// Render hands items not rendered before to the view, in order, either
// appended at the end of the feed or each prepended at the top. Prepending
// one at a time leaves the batch reversed above the existing nodes.
// Returns how many were rendered.
func (c *Controller) Render(items []model.Item, prepend bool) int {
	fresh := make([]model.Item, 0, len(items))
	for _, it := range items {
		if c.seen.Has(it) {
			continue
		}
		c.seen.Add(it)
		fresh = append(fresh, it)
	}
	if len(fresh) == 0 {
		return 0
	}
	if prepend {
		for _, it := range fresh {
			c.view.Prepend(it)
		}
	} else {
		c.view.Append(fresh...)
	}
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRender, Count: len(fresh)})
	return len(fresh)
}

// ToggleComments expands or collapses the thread under item. The first
// expansion shows a loading placeholder and requests the comments; later
// expansions reuse the loaded thread. Items without kids have no thread.
func (c *Controller) ToggleComments(item model.Item) *Request {
	if c.view.CommentsExpanded(item.ID) {
		c.view.CollapseComments(item.ID)
		return nil
	}
	if !item.HasComments() {
		return nil
	}
	if th, ok := c.threads[item.ID]; ok {
		c.view.ExpandComments(item.ID, th)
		return nil
	}
	c.view.ExpandComments(item.ID, Thread{State: ThreadLoading})
	return &Request{Kind: RequestComments, Gen: c.gen, Feed: c.feedType, PostID: item.ID}
}

// Complete applies the outcome of a Request.
func (c *Controller) Complete(res Result) {
	req := res.Request
	if req.Gen != c.gen {
		c.completeStale(res)
		return
	}

	switch req.Kind {
	case RequestInitial:
		c.awaiting = false
		if res.Err != nil {
			c.fail(req, res.Err, MsgInitialLoadFailed)
			return
		}
		n := c.Render(res.Items, false)
		c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoad, Page: req.Page, Count: n, Msg: "complete"})

	case RequestMore:
		c.loading = false
		c.view.SetLoading(false)
		if res.Err != nil {
			c.page--
			c.fail(req, res.Err, MsgLoadMoreFailed)
			return
		}
		n := c.Render(res.Items, false)
		c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadMore, Page: req.Page, Count: n, Msg: "complete"})

	case RequestPoll:
		if res.Err != nil {
			c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPoll, Err: res.Err.Error()})
			return
		}
		c.completePoll(res.Items)

	case RequestComments:
		c.completeComments(req.PostID, res)
	}
}

func (c *Controller) completePoll(items []model.Item) {
	var fresh []model.Item
	for _, it := range items {
		if !c.seen.Has(it) {
			fresh = append(fresh, it)
		}
	}
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPoll, Count: len(fresh)})
	if len(fresh) == 0 {
		return
	}
	c.pending = append(c.pending, fresh...)
	c.view.SetPending(len(c.pending))
	c.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPending, Count: len(c.pending)})
}

func (c *Controller) completeComments(id string, res Result) {
	var th Thread
	switch {
	case res.Err != nil:
		th = Thread{State: ThreadFailed}
		c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCommentsError, Msg: id, Err: res.Err.Error()})
	case len(res.Comments) == 0:
		th = Thread{State: ThreadEmpty}
		c.threads[id] = th
	default:
		th = Thread{State: ThreadLoaded, Comments: res.Comments}
		c.threads[id] = th
	}
	if c.view.CommentsExpanded(id) {
		c.view.ExpandComments(id, th)
	}
}

// completeStale drops a result from an earlier generation. A stale LoadMore
// still owns the loading flag, since only one can be in flight.
func (c *Controller) completeStale(res Result) {
	if res.Request.Kind == RequestMore && c.loading {
		c.loading = false
		c.view.SetLoading(false)
	}
	c.emit(otel.Event{
		Level: otel.LevelDebug,
		Kind:  otel.KindStale,
		Gen:   res.Request.Gen,
		Feed:  string(res.Request.Feed),
		Page:  res.Request.Page,
		Msg:   res.Request.Kind.String(),
	})
}

func (c *Controller) fail(req Request, err error, msg string) {
	c.view.ShowError(msg)
	c.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindLoadFail, Page: req.Page, Msg: req.Kind.String(), Err: err.Error()})
}

func (c *Controller) request(kind RequestKind, page int) *Request {
	return &Request{Kind: kind, Gen: c.gen, Feed: c.feedType, Page: page}
}

// emit fills the feed context into e.
func (c *Controller) emit(e otel.Event) {
	e.Comp = "feed"
	if e.Gen == 0 {
		e.Gen = c.gen
	}
	if e.Feed == "" {
		e.Feed = string(c.feedType)
	}
	c.logger.Emit(e)
}
