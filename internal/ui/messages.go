// Package ui provides the Bubble Tea TUI for hnfeed.
package ui

import "github.com/abelbrown/hnfeed/internal/feed"

// ResultMsg carries the outcome of a controller request back to Update.
type ResultMsg struct {
	Result feed.Result
}

// PollTickMsg fires every poll interval.
type PollTickMsg struct{}

// errorExpiredMsg dismisses the error banner with the matching seq.
type errorExpiredMsg struct {
	seq int
}
