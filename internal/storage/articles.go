package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Store error kinds.
var (
	ErrStorageRead  = errors.New("storage read failed")
	ErrStorageWrite = errors.New("storage write failed")
	ErrNotFound     = errors.New("saved article not found")
)

// ArticleStore keeps SavedArticle records in a SQLite file.
// The database is opened lazily and the handle lives for the process lifetime.
type ArticleStore struct {
	path   string
	logger *logger.Logger

	mu   sync.Mutex
	conn *sql.DB

	now   func() time.Time
	newID func() string
}

// NewArticleStore returns a store for the database at path without opening it.
func NewArticleStore(path string, log *logger.Logger) *ArticleStore {
	if log == nil {
		log = logger.Discard()
	}

	return &ArticleStore{
		path:   path,
		logger: log.With("component", "store"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// open returns the cached handle, opening and migrating the database on first call.
func (s *ArticleStore) open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection keeps writes serialized and in-memory databases shared.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.logger.Debug("database opened", "path", s.path)
	s.conn = conn
	return conn, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version >= schemaVersion {
		return nil
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	return nil
}

// Close releases the database handle if it was opened.
func (s *ArticleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	return err
}

// Save stores article under a fresh id and the current time.
func (s *ArticleStore) Save(ctx context.Context, article models.Article) (models.SavedArticle, error) {
	conn, err := s.open(ctx)
	if err != nil {
		return models.SavedArticle{}, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	saved := models.SavedArticle{
		Article:   article,
		ID:        s.newID(),
		CreatedAt: s.now().UnixMilli(),
	}

	attribution, err := encodeAttribution(article.SearchAttribution)
	if err != nil {
		return models.SavedArticle{}, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	_, err = conn.ExecContext(
		ctx,
		`INSERT INTO posts (id, title, content, search_attribution, created_at) VALUES (?, ?, ?, ?, ?)`,
		saved.ID,
		saved.Title,
		saved.Content,
		attribution,
		saved.CreatedAt,
	)
	if err != nil {
		return models.SavedArticle{}, fmt.Errorf("%w: insert post: %w", ErrStorageWrite, err)
	}

	s.logger.Info("article saved", "id", saved.ID, "title", saved.Title)
	return saved, nil
}

// ListAll returns every saved article, oldest first.
func (s *ArticleStore) ListAll(ctx context.Context) ([]models.SavedArticle, error) {
	conn, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	rows, err := conn.QueryContext(
		ctx,
		`SELECT id, title, content, search_attribution, created_at
		 FROM posts ORDER BY created_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %w", ErrStorageRead, err)
	}
	defer rows.Close()

	posts := make([]models.SavedArticle, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate posts: %w", ErrStorageRead, err)
	}

	return posts, nil
}

// Get fetches one saved article by id.
func (s *ArticleStore) Get(ctx context.Context, id string) (models.SavedArticle, error) {
	conn, err := s.open(ctx)
	if err != nil {
		return models.SavedArticle{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	row := conn.QueryRowContext(
		ctx,
		`SELECT id, title, content, search_attribution, created_at FROM posts WHERE id = ?`,
		id,
	)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SavedArticle{}, ErrNotFound
		}
		return models.SavedArticle{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	return post, nil
}

// Delete removes the article with id. Unknown ids are not an error.
func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	conn, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	res, err := conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete post: %w", ErrStorageWrite, err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info("article deleted", "id", id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (models.SavedArticle, error) {
	var post models.SavedArticle
	var attribution sql.NullString

	if err := row.Scan(&post.ID, &post.Title, &post.Content, &attribution, &post.CreatedAt); err != nil {
		return models.SavedArticle{}, fmt.Errorf("scan post: %w", err)
	}

	decoded, err := decodeAttribution(attribution)
	if err != nil {
		return models.SavedArticle{}, err
	}
	post.SearchAttribution = decoded

	return post, nil
}

func encodeAttribution(sources []string) (*string, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("encode attribution: %w", err)
	}

	encoded := string(data)
	return &encoded, nil
}

func decodeAttribution(raw sql.NullString) ([]string, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}

	var sources []string
	if err := json.Unmarshal([]byte(raw.String), &sources); err != nil {
		return nil, fmt.Errorf("decode attribution: %w", err)
	}

	return sources, nil
}
