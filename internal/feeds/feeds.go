// Package feeds suggests riff topics from RSS and Atom headlines.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
)

// Feed errors.
var (
	ErrInvalidFeedURL = errors.New("feed url must start with http:// or https://")
	ErrEmptyFeed      = errors.New("feed contains no items")
)

// Fetcher pulls headlines from feeds.
type Fetcher struct {
	timeout time.Duration
	logger  *logger.Logger
}

// NewFetcher creates a fetcher that gives each feed at most timeout.
func NewFetcher(timeout time.Duration, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{timeout: timeout, logger: log.With("component", "feeds")}
}

// Fetch returns the items of one feed.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]models.FeedItem, error) {
	if !strings.HasPrefix(feedURL, "http://") && !strings.HasPrefix(feedURL, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFeedURL, feedURL)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	feed, err := gofeed.NewParser().ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFeed, feedURL)
	}

	items := make([]models.FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		fi := models.FeedItem{
			Title:      title,
			Link:       item.Link,
			FeedSource: feed.Title,
		}
		switch {
		case item.PublishedParsed != nil:
			fi.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			fi.Published = *item.UpdatedParsed
		}
		items = append(items, fi)
	}

	f.logger.Debug("feed parsed", "feed", feed.Title, "items", len(items))
	return items, nil
}

// Topics fetches all feeds concurrently and returns up to limit headlines, newest first.
// Feeds that fail are logged and skipped.
func (f *Fetcher) Topics(ctx context.Context, feedURLs []string, limit int) []models.FeedItem {
	var (
		all []models.FeedItem
		wg  sync.WaitGroup
		mu  sync.Mutex
	)

	for _, feedURL := range feedURLs {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			items, err := f.Fetch(ctx, url)
			if err != nil {
				f.logger.Warn("skipping feed", "url", url, "error", err)
				return
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(feedURL)
	}
	wg.Wait()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Published.After(all[j].Published)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all
}

// Latest returns the newest headline of one feed, for use as a topic.
func (f *Fetcher) Latest(ctx context.Context, feedURL string) (models.FeedItem, error) {
	items := f.Topics(ctx, []string{feedURL}, 1)
	if len(items) == 0 {
		return models.FeedItem{}, fmt.Errorf("%w: %s", ErrEmptyFeed, feedURL)
	}
	return items[0], nil
}
