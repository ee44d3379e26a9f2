package otel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the async write queue. A full queue drops events rather
// than stalling the UI goroutine.
const queueSize = 4096

// record pairs the encoded line with the event it came from, so the ring
// buffer keeps fields that are not serialized (Dur).
type record struct {
	line []byte
	ev   Event
}

// Logger writes events as JSONL on a background goroutine and mirrors them
// into an optional RingBuffer. Safe for concurrent use.
//
// A null logger (NewNullLogger) has no writer and no goroutine: events only
// reach the ring buffer, synchronously.
type Logger struct {
	sessionID string
	ring      atomic.Pointer[RingBuffer]
	dropped   atomic.Uint64

	w     io.Writer
	queue chan record // nil for a null logger
	done  chan struct{}

	// mu orders sends on queue against Close.
	mu     sync.RWMutex
	closed bool
}

// NewLogger creates a Logger writing JSONL to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		sessionID: newSessionID(),
		w:         w,
		queue:     make(chan record, queueSize),
		done:      make(chan struct{}),
	}
	go l.run()
	return l
}

// NewNullLogger creates a Logger that writes nowhere. Close is optional.
func NewNullLogger() *Logger {
	return &Logger{sessionID: newSessionID()}
}

// Open creates the parent directory of path, opens path for appending and
// returns a Logger writing to it. The returned func closes both.
func Open(path string) (*Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	l := NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}, nil
}

func newSessionID() string { return uuid.NewString() }

func (l *Logger) run() {
	defer close(l.done)
	for r := range l.queue {
		if _, err := l.w.Write(r.line); err != nil {
			l.dropped.Add(1)
		}
		if rb := l.ring.Load(); rb != nil {
			rb.Push(r.ev)
		}
	}
}

// SessionID returns the UUID stamped on every event.
func (l *Logger) SessionID() string { return l.sessionID }

// SetRingBuffer mirrors subsequent events into buf.
func (l *Logger) SetRingBuffer(buf *RingBuffer) {
	l.ring.Store(buf)
}

// Emit stamps e with the time (if unset) and session ID and queues it.
// Never blocks: on a full queue or after Close the event is counted as
// dropped.
func (l *Logger) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	if l.queue == nil {
		if rb := l.ring.Load(); rb != nil {
			rb.Push(e)
		}
		return
	}

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- record{line: line, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns the number of events lost since creation.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close flushes queued events and stops the writer. Later Emits are
// dropped. Idempotent.
func (l *Logger) Close() {
	if l.queue == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()
	<-l.done

	if d := l.dropped.Load(); d > 0 {
		fmt.Fprintf(os.Stderr, "hnfeed: %d events dropped during session %s\n", d, l.sessionID)
	}
}

// Scope returns a helper that emits events for one component.
func (l *Logger) Scope(comp string) Scope {
	return Scope{l: l, comp: comp}
}

// Scope emits events with a fixed Comp.
type Scope struct {
	l    *Logger
	comp string
}

func (s Scope) Debug(kind EventKind, msg string) {
	s.l.Emit(Event{Level: LevelDebug, Kind: kind, Comp: s.comp, Msg: msg})
}

func (s Scope) Info(kind EventKind, msg string) {
	s.l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: s.comp, Msg: msg})
}

func (s Scope) Warn(kind EventKind, msg string) {
	s.l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: s.comp, Msg: msg})
}

// Error emits an error event. A nil err is logged with an empty Err.
func (s Scope) Error(kind EventKind, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: s.comp}
	if err != nil {
		e.Err = err.Error()
	}
	s.l.Emit(e)
}
