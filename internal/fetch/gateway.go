package fetch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/hnfeed/internal/model"
	"github.com/abelbrown/hnfeed/internal/otel"
)

// indexEndpoint maps a feed to its Firebase index name.
var indexEndpoint = map[model.FeedType]string{
	model.FeedNew: "newstories",
	model.FeedJob: "jobstories",
}

// FetchItemIDs returns the identifiers for a feed in upstream order.
// Failures yield an empty slice, never an error.
func (c *Client) FetchItemIDs(ctx context.Context, feed model.FeedType) []string {
	if feed == model.FeedPoll {
		hits, err := c.searchPolls(ctx, 0)
		if err != nil {
			return []string{}
		}
		ids := make([]string, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ObjectID)
		}
		return ids
	}

	ids, err := c.fetchIndex(ctx, feed)
	if err != nil {
		return []string{}
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = model.FormatID(id)
	}
	return out
}

// FetchItemDetails fetches a single item. The bool is false when the item
// is absent: upstream failure, bad payload or a null record.
func (c *Client) FetchItemDetails(ctx context.Context, id string) (model.Item, bool) {
	raw, err := c.fetchItem(ctx, id)
	if err != nil {
		return model.Item{}, false
	}
	return raw.toItem(), true
}

// LoadItems returns one page (1-based) of a feed, at most PageSize items.
//
// Polls come pre-joined from the search API in date order. Stories and jobs
// are windowed on the Firebase index first and filtered afterwards, so a
// page can hold fewer than PageSize items even when later entries match.
//
// Upstream failures yield an empty page and a nil error. The returned error
// is non-nil only for an invalid page, an unknown feed or a cancelled ctx.
func (c *Client) LoadItems(ctx context.Context, feed model.FeedType, page int) ([]model.Item, error) {
	if page < 1 {
		return nil, fmt.Errorf("load %s page %d: %w", feed, page, ErrInvalidPage)
	}
	if !feed.Valid() {
		return nil, fmt.Errorf("load %q: %w", feed, ErrUnknownFeed)
	}

	start := time.Now()
	var items []model.Item
	if feed == model.FeedPoll {
		items = c.loadPolls(ctx, page)
	} else {
		items = c.loadIndexed(ctx, feed, page)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindFetchComplete,
		Comp:  "fetch",
		Feed:  string(feed),
		Page:  page,
		Count: len(items),
		Dur:   time.Since(start),
	})
	return items, nil
}

func (c *Client) loadPolls(ctx context.Context, page int) []model.Item {
	hits, err := c.searchPolls(ctx, page-1)
	if err != nil {
		return []model.Item{}
	}
	items := make([]model.Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, h.toItem())
	}
	if len(items) > c.pageSize {
		items = items[:c.pageSize]
	}
	return items
}

func (c *Client) loadIndexed(ctx context.Context, feed model.FeedType, page int) []model.Item {
	ids, err := c.fetchIndex(ctx, feed)
	if err != nil {
		return []model.Item{}
	}

	lo, hi := pageWindow(len(ids), page, c.pageSize)
	window := ids[lo:hi]

	// Results are indexed by window position so upstream order survives
	// the concurrent fetch; nil marks an absent item.
	results := make([]*firebaseItem, len(window))
	var g errgroup.Group
	g.SetLimit(c.parallel)
	for i, id := range window {
		g.Go(func() error {
			raw, err := c.fetchItem(ctx, model.FormatID(id))
			if err == nil {
				results[i] = &raw
			}
			return nil
		})
	}
	g.Wait()

	items := make([]model.Item, 0, len(window))
	for _, raw := range results {
		if raw == nil || !raw.keepFor(feed) {
			continue
		}
		items = append(items, raw.toItem())
	}
	if len(items) > c.pageSize {
		items = items[:c.pageSize]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time > items[j].Time
	})
	return items
}

// pageWindow returns the [lo, hi) index window for a 1-based page,
// clamped to n.
func pageWindow(n, page, size int) (lo, hi int) {
	lo = (page - 1) * size
	if lo > n {
		lo = n
	}
	hi = lo + size
	if hi > n {
		hi = n
	}
	return lo, hi
}

// FetchComments returns the immediate replies under a post, newest first.
// Upstream failures and posts without replies yield an empty slice; the
// error is non-nil only when ctx is done.
func (c *Client) FetchComments(ctx context.Context, postID string) ([]model.Comment, error) {
	url := fmt.Sprintf("%s/items/%s", c.searchURL, postID)

	var post algoliaPost
	isNull, err := c.getJSON(ctx, url, &post)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.warn("comments", url, err)
		return []model.Comment{}, nil
	}
	if isNull || len(post.Children) == 0 {
		return []model.Comment{}, nil
	}

	comments := make([]model.Comment, 0, len(post.Children))
	for _, child := range post.Children {
		comments = append(comments, child.toComment())
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Time > comments[j].Time
	})

	c.logger.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindCommentsLoad,
		Comp:  "fetch",
		Count: len(comments),
		Msg:   postID,
	})
	return comments, nil
}

func (c *Client) fetchIndex(ctx context.Context, feed model.FeedType) ([]int, error) {
	name, ok := indexEndpoint[feed]
	if !ok {
		return nil, ErrUnknownFeed
	}
	url := fmt.Sprintf("%s/%s.json", c.baseURL, name)

	var ids []int
	isNull, err := c.getJSON(ctx, url, &ids)
	if err == nil && isNull {
		err = fmt.Errorf("%w: %s index", ErrNotFound, name)
	}
	if err != nil {
		if ctx.Err() == nil {
			c.warn("index", url, err)
		}
		return nil, err
	}
	return ids, nil
}

func (c *Client) fetchItem(ctx context.Context, id string) (firebaseItem, error) {
	url := fmt.Sprintf("%s/item/%s.json", c.baseURL, id)

	var raw firebaseItem
	isNull, err := c.getJSON(ctx, url, &raw)
	if err == nil && isNull {
		err = fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	if err != nil {
		if ctx.Err() == nil {
			c.warn("item", url, err)
		}
		return firebaseItem{}, err
	}
	return raw, nil
}

func (c *Client) searchPolls(ctx context.Context, page int) ([]algoliaHit, error) {
	url := fmt.Sprintf("%s/search_by_date?tags=poll&page=%d", c.searchURL, page)

	var res algoliaSearch
	isNull, err := c.getJSON(ctx, url, &res)
	if err == nil && isNull {
		err = fmt.Errorf("%w: poll search", ErrNotFound)
	}
	if err != nil {
		if ctx.Err() == nil {
			c.warn("search", url, err)
		}
		return nil, err
	}
	return res.Hits, nil
}
