package models

import (
	"time"
)

// FeedItem is a headline pulled from an RSS/Atom feed, offered as a topic.
type FeedItem struct {
	Title      string
	Link       string
	Published  time.Time
	FeedSource string
}
