package feed

import "github.com/abelbrown/hnfeed/internal/model"

// ThreadState is the display state of an expanded comment thread.
type ThreadState int

const (
	ThreadLoading ThreadState = iota
	ThreadLoaded
	ThreadEmpty
	ThreadFailed
)

func (s ThreadState) String() string {
	switch s {
	case ThreadLoading:
		return "loading"
	case ThreadLoaded:
		return "loaded"
	case ThreadEmpty:
		return "empty"
	case ThreadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Thread is what an expanded comment block shows.
type Thread struct {
	State    ThreadState
	Comments []model.Comment
}

// View is the rendering side of the feed. The controller never touches a
// concrete UI toolkit; it only calls these methods, always from the UI
// goroutine.
type View interface {
	// Clear removes every rendered item node.
	Clear()
	// Append adds nodes at the end of the feed, in order.
	Append(items ...model.Item)
	// Prepend adds nodes at the top of the feed, keeping their order.
	Prepend(items ...model.Item)
	// SetLoading shows or hides the load-more indicator.
	SetLoading(on bool)
	// SetPending shows the "new content" banner for count items; 0 hides it.
	SetPending(count int)
	// ShowError shows a transient error banner.
	ShowError(msg string)
	// ExpandComments shows (or replaces) the comment block under an item.
	ExpandComments(id string, t Thread)
	// CollapseComments hides the comment block under an item.
	CollapseComments(id string)
	// CommentsExpanded reports whether an item's comment block is visible.
	CommentsExpanded(id string) bool
}
