package feed

import "github.com/abelbrown/hnfeed/internal/model"

// Seen is the set of item IDs rendered in the current feed session.
// It only grows; Clear (or a fresh Seen) is the only way to forget.
// Not safe for concurrent use: it lives on the UI goroutine.
type Seen struct {
	ids map[string]struct{}
}

// NewSeen returns an empty set.
func NewSeen() *Seen {
	return &Seen{ids: make(map[string]struct{})}
}

// Has reports whether item was already rendered.
func (s *Seen) Has(item model.Item) bool {
	_, ok := s.ids[item.ID]
	return ok
}

// Add records item as rendered.
func (s *Seen) Add(item model.Item) {
	s.ids[item.ID] = struct{}{}
}

// Clear forgets every item.
func (s *Seen) Clear() {
	clear(s.ids)
}

// Len returns the number of recorded items.
func (s *Seen) Len() int {
	return len(s.ids)
}
