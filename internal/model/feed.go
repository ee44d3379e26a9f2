package model

import (
	"fmt"
	"strings"
)

// FeedType selects the data source and the filtering rule for a feed.
type FeedType string

const (
	FeedNew  FeedType = "new"
	FeedJob  FeedType = "job"
	FeedPoll FeedType = "poll"
)

// FeedTypes lists the feeds in tab order.
var FeedTypes = []FeedType{FeedNew, FeedJob, FeedPoll}

// Label returns the tab label shown for the feed.
func (f FeedType) Label() string {
	switch f {
	case FeedNew:
		return "Latest Stories"
	case FeedJob:
		return "Jobs"
	case FeedPoll:
		return "Polls"
	default:
		return string(f)
	}
}

// Valid reports whether f is one of the known feeds.
func (f FeedType) Valid() bool {
	switch f {
	case FeedNew, FeedJob, FeedPoll:
		return true
	}
	return false
}

// Index returns the tab position of f, or -1.
func (f FeedType) Index() int {
	for i, t := range FeedTypes {
		if t == f {
			return i
		}
	}
	return -1
}

// ParseFeedType accepts a feed name ("new", "job", "poll") or a tab label
// ("Latest Stories", "Jobs", "Polls"), case-insensitively.
func ParseFeedType(s string) (FeedType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, t := range FeedTypes {
		if s == string(t) || s == strings.ToLower(t.Label()) {
			return t, nil
		}
	}
	switch s {
	case "newstories", "stories":
		return FeedNew, nil
	case "jobs", "jobstories":
		return FeedJob, nil
	case "polls":
		return FeedPoll, nil
	}
	return "", fmt.Errorf("unknown feed type %q", s)
}
