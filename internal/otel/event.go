// Package otel provides structured observability for hnfeed.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer backs the in-app debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Gateway events
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"

	// Feed controller events
	KindLoad     EventKind = "feed.load"
	KindLoadMore EventKind = "feed.load_more"
	KindTab      EventKind = "feed.tab"
	KindPoll     EventKind = "feed.poll"
	KindPending  EventKind = "feed.pending"
	KindRender   EventKind = "feed.render"
	KindStale    EventKind = "feed.stale"
	KindLoadFail EventKind = "feed.error"

	// Comment thread events
	KindCommentsLoad  EventKind = "comments.load"
	KindCommentsError EventKind = "comments.error"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "fetch", "feed", "ui", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Gen       uint64         `json:"gen,omitempty"`        // feed generation the event belongs to
	Feed      string         `json:"feed,omitempty"`       // new, job, poll
	Page      int            `json:"page,omitempty"`
	Dur       time.Duration  `json:"-"`                // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	URL       string         `json:"url,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
