package fetch

import (
	"strings"
	"time"

	"github.com/abelbrown/hnfeed/internal/model"
)

// firebaseItem is a raw record from {base}/item/{id}.json.
type firebaseItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Kids        []int  `json:"kids"`
	Descendants int    `json:"descendants"`
	Job         bool   `json:"job"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

func (f firebaseItem) toItem() model.Item {
	kids := f.Kids
	if kids == nil {
		kids = []int{}
	}
	return model.Item{
		ID:    model.FormatID(f.ID),
		Title: f.Title,
		URL:   f.URL,
		By:    f.By,
		Time:  f.Time,
		Score: f.Score,
		Type:  model.ItemType(f.Type),
		Kids:  kids,
	}
}

// keepFor applies the per-feed type filter to a Firebase record.
func (f firebaseItem) keepFor(feed model.FeedType) bool {
	switch feed {
	case model.FeedJob:
		return f.Type == string(model.TypeJob)
	case model.FeedNew:
		return f.Type == string(model.TypeStory) && !f.Job && f.URL != ""
	default:
		return true
	}
}

// algoliaSearch is the body of {search}/search_by_date.
type algoliaSearch struct {
	Hits []algoliaHit `json:"hits"`
}

// algoliaHit is one pre-joined search result.
type algoliaHit struct {
	ObjectID   string `json:"objectID"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Author     string `json:"author"`
	Points     *int   `json:"points"`
	CreatedAt  string `json:"created_at"`
	CreatedAtI int64  `json:"created_at_i"`
	Children   []int  `json:"children"`
}

func (h algoliaHit) toItem() model.Item {
	kids := h.Children
	if kids == nil {
		kids = []int{}
	}
	score := 0
	if h.Points != nil {
		score = *h.Points
	}
	return model.Item{
		ID:    h.ObjectID,
		Title: h.Title,
		URL:   h.URL,
		By:    h.Author,
		Time:  unixSeconds(h.CreatedAt, h.CreatedAtI),
		Score: score,
		Type:  model.TypePoll,
		Kids:  kids,
	}
}

// algoliaPost is the body of {search}/items/{id}.
type algoliaPost struct {
	ID       int            `json:"id"`
	Children []algoliaChild `json:"children"`
}

// algoliaChild is an immediate reply under a post. Nested replies are
// ignored: threads are modeled as a flat list.
type algoliaChild struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Author     string `json:"author"`
	CreatedAt  string `json:"created_at"`
	CreatedAtI int64  `json:"created_at_i"`
}

func (c algoliaChild) toComment() model.Comment {
	return model.Comment{
		ID:   model.FormatID(c.ID),
		Text: c.Text,
		By:   c.Author,
		Time: unixSeconds(c.CreatedAt, c.CreatedAtI),
		Type: model.TypeComment,
	}
}

// createdAtLayouts are the timestamp shapes seen from the search API.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// unixSeconds converts an ISO-ish upstream timestamp to unix seconds,
// falling back to the numeric field when the string does not parse.
// Zone-less timestamps are taken as UTC.
func unixSeconds(iso string, fallback int64) int64 {
	iso = strings.TrimSpace(iso)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Unix()
		}
	}
	return fallback
}
