// Package storage owns everything the riff binary keeps on local disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thedittmer/daily-riff/internal/config"
	"github.com/thedittmer/daily-riff/internal/logger"
)

const (
	// DBFileName is the saved-articles database inside the data dir.
	DBFileName = "daily-riff.db"
	feedsFile  = "feeds.txt"
)

// DefaultFeeds seed feeds.txt on first use.
var DefaultFeeds = []string{
	"https://seths.blog/feed/",
	"https://news.ycombinator.com/rss",
	"https://lessnews.dev/rss.xml",
	"https://dev.to/feed",
}

// Storage is rooted at the application data directory.
type Storage struct {
	dataDir string
	logger  *logger.Logger
}

// NewStorage makes sure dataDir exists and returns a Storage rooted there.
func NewStorage(dataDir string, log *logger.Logger) (*Storage, error) {
	if log == nil {
		log = logger.Discard()
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	log.Debug("using storage directory", "path", dataDir)
	return &Storage{dataDir: dataDir, logger: log}, nil
}

// Path joins name onto the data dir.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// Articles returns the saved-article store. The database opens on first use.
func (s *Storage) Articles() *ArticleStore {
	return NewArticleStore(s.Path(DBFileName), s.logger)
}

// SaveFeeds writes the feed list, one URL per line, with a comment header.
func (s *Storage) SaveFeeds(feeds []string) error {
	var b strings.Builder
	b.WriteString("# Topic feeds (one RSS/Atom URL per line)\n")
	b.WriteString("# Lines starting with # are comments\n\n")

	for _, feed := range feeds {
		b.WriteString(feed)
		b.WriteByte('\n')
	}

	if err := WriteFileAtomic(s.Path(feedsFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save feeds: %w", err)
	}

	s.logger.Info("feeds saved", "count", len(feeds), "path", s.Path(feedsFile))
	return nil
}

// LoadFeeds reads feeds.txt, creating it with DefaultFeeds when missing.
// Lines that are not http(s) URLs come back in invalid.
func (s *Storage) LoadFeeds() (feeds []string, invalid []string, err error) {
	path := s.Path(feedsFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.SaveFeeds(DefaultFeeds); err != nil {
			return nil, nil, fmt.Errorf("create default feeds file: %w", err)
		}
	}

	feeds, invalid, err = config.LoadFeedsFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read feeds file: %w", err)
	}

	s.logger.Debug("feeds loaded", "count", len(feeds), "invalid", len(invalid), "path", path)
	return feeds, invalid, nil
}

// WriteFileAtomic writes to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
