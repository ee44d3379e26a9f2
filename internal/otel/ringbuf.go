package otel

import "sync"

// DefaultRingSize is the capacity used when NewRingBuffer gets a
// non-positive size.
const DefaultRingSize = 1024

// RingBuffer keeps the most recent events for the debug overlay. Old
// events are overwritten once it is full. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	slots []Event
	total uint64 // events ever pushed; the next write goes to total % len(slots)
}

// NewRingBuffer creates a ring buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{slots: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full. Extra is copied so
// later writes by the caller do not show through.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		extra := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = v
		}
		e.Extra = extra
	}
	r.mu.Lock()
	r.slots[r.total%uint64(len(r.slots))] = e
	r.total++
	r.mu.Unlock()
}

// lenLocked returns the number of stored events. r.mu must be held.
func (r *RingBuffer) lenLocked() int {
	if r.total < uint64(len(r.slots)) {
		return int(r.total)
	}
	return len(r.slots)
}

// atLocked returns the i-th stored event, oldest first. r.mu must be held.
func (r *RingBuffer) atLocked(i int) Event {
	oldest := r.total - uint64(r.lenLocked())
	return r.slots[(oldest+uint64(i))%uint64(len(r.slots))]
}

// Snapshot returns every stored event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Last returns up to n of the newest events, oldest first. Nil when n <= 0
// or the buffer is empty.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	have := r.lenLocked()
	if n > have {
		n = have
	}
	if n <= 0 {
		return nil
	}
	out := make([]Event, n)
	for i := range out {
		out[i] = r.atLocked(have - n + i)
	}
	return out
}

// Filter returns up to n of the newest events matching keep, oldest first.
func (r *RingBuffer) Filter(n int, keep func(Event) bool) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	var out []Event
	for i := r.lenLocked() - 1; i >= 0 && len(out) < n; i-- {
		if e := r.atLocked(i); keep(e) {
			out = append(out, e)
		}
	}
	r.mu.Unlock()

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// LastProblems returns up to n of the newest warn or error events.
func (r *RingBuffer) LastProblems(n int) []Event {
	return r.Filter(n, func(e Event) bool {
		return e.Level == LevelWarn || e.Level == LevelError
	})
}

// ForGen returns up to n of the newest events of feed generation gen.
func (r *RingBuffer) ForGen(gen uint64, n int) []Event {
	return r.Filter(n, func(e Event) bool { return e.Gen == gen })
}

// Len returns the number of stored events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

// Cap returns the capacity.
func (r *RingBuffer) Cap() int {
	return len(r.slots)
}

// Total returns how many events were ever pushed, evicted ones included.
func (r *RingBuffer) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Stats counts stored events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	for i := 0; i < r.lenLocked(); i++ {
		counts[r.atLocked(i).Kind]++
	}
	return counts
}
