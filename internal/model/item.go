// Package model defines the canonical feed types shared by the gateway,
// the feed controller and the views.
//
// Nothing in this package knows which upstream API produced a value.
package model

import (
	"strconv"
	"time"
)

// ItemType is the native type of a canonical item.
type ItemType string

const (
	TypeStory   ItemType = "story"
	TypeJob     ItemType = "job"
	TypePoll    ItemType = "poll"
	TypeComment ItemType = "comment"
)

// Item is the unified post representation (story, job or poll).
//
// ID is the upstream identifier rendered as a decimal string, so the same
// entity fetched from either API yields the same ID.
type Item struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	URL   string   `json:"url,omitempty"`
	By    string   `json:"by"`
	Time  int64    `json:"time"` // unix seconds
	Score int      `json:"score,omitempty"`
	Type  ItemType `json:"type"`
	Kids  []int    `json:"kids"`
}

// Published returns Time as a time.Time.
func (i Item) Published() time.Time {
	return time.Unix(i.Time, 0)
}

// HasComments reports whether the item has child comments to expand.
func (i Item) HasComments() bool {
	return len(i.Kids) > 0
}

// Comment is a single flat discussion entry under a post.
type Comment struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	By   string   `json:"by"`
	Time int64    `json:"time"`
	Type ItemType `json:"type"`
}

// Published returns Time as a time.Time.
func (c Comment) Published() time.Time {
	return time.Unix(c.Time, 0)
}

// FormatID renders a numeric upstream ID as a canonical item ID.
func FormatID(id int) string {
	return strconv.Itoa(id)
}
