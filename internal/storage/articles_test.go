package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/thedittmer/daily-riff/internal/models"
)

func newTestStore(t *testing.T) *ArticleStore {
	t.Helper()

	s := NewArticleStore(filepath.Join(t.TempDir(), DBFileName), nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestArticleStore_SaveThenList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before := time.Now().UnixMilli()
	saved, err := s.Save(ctx, models.Article{
		Title:             "Sunk costs",
		Content:           "Walk away.\nIt's fine.",
		SearchAttribution: []string{"https://example.com/sunk"},
	})
	if err != nil {
		t.Fatalf("Save returned unexpected error: %v", err)
	}

	if saved.ID == "" {
		t.Error("Save returned empty id")
	}
	if saved.CreatedAt < before {
		t.Errorf("CreatedAt = %d, want >= %d", saved.CreatedAt, before)
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned unexpected error: %v", err)
	}

	count := 0
	for _, p := range posts {
		if p.ID == saved.ID {
			count++
			if p.Content != saved.Content || p.CreatedAt != saved.CreatedAt {
				t.Errorf("stored record differs: %+v vs %+v", p, saved)
			}
			if len(p.SearchAttribution) != 1 || p.SearchAttribution[0] != "https://example.com/sunk" {
				t.Errorf("SearchAttribution = %v", p.SearchAttribution)
			}
		}
	}
	if count != 1 {
		t.Errorf("saved record appears %d times, want 1", count)
	}
}

func TestArticleStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.Save(ctx, models.Article{Title: "Ruckus", Content: "Make one."})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("first Delete returned unexpected error: %v", err)
	}
	if err := s.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("second Delete returned unexpected error: %v", err)
	}
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("Delete of unknown id returned error: %v", err)
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for _, p := range posts {
		if p.ID == saved.ID {
			t.Errorf("deleted id %s still listed", saved.ID)
		}
	}

	if _, err := s.Get(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestArticleStore_ListOrderedByCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Saves happen out of chronological order.
	stamps := []int64{5000, 1000, 3000, 1000, 4000}
	i := 0
	s.now = func() time.Time {
		ts := stamps[i]
		i++
		return time.UnixMilli(ts)
	}

	for range stamps {
		if _, err := s.Save(ctx, models.Article{Title: "t", Content: "c"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) != len(stamps) {
		t.Fatalf("len = %d, want %d", len(posts), len(stamps))
	}

	ordered := sort.SliceIsSorted(posts, func(a, b int) bool {
		return posts[a].CreatedAt < posts[b].CreatedAt
	})
	if !ordered {
		t.Errorf("posts not in non-decreasing createdAt order: %+v", posts)
	}
}

func TestArticleStore_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seen := make(map[string]bool)
	for n := 0; n < 20; n++ {
		saved, err := s.Save(ctx, models.Article{Title: "t", Content: "c"})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if seen[saved.ID] {
			t.Fatalf("id %s reused", saved.ID)
		}
		seen[saved.ID] = true

		if n%2 == 0 {
			if err := s.Delete(ctx, saved.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
		}
	}
}

func TestArticleStore_DuplicateIDIsWriteError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.newID = func() string { return "fixed" }

	if _, err := s.Save(ctx, models.Article{Title: "a", Content: "b"}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	_, err := s.Save(ctx, models.Article{Title: "a", Content: "b"})
	if !errors.Is(err, ErrStorageWrite) {
		t.Errorf("err = %v, want ErrStorageWrite", err)
	}
}

func TestArticleStore_OpenFailureIsReadError(t *testing.T) {
	s := NewArticleStore(filepath.Join(t.TempDir(), "missing", "dir", DBFileName), nil)

	_, err := s.ListAll(context.Background())
	if !errors.Is(err, ErrStorageRead) {
		t.Errorf("err = %v, want ErrStorageRead", err)
	}
}

func TestArticleStore_SchemaSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DBFileName)

	first := NewArticleStore(path, nil)
	saved, err := first.Save(ctx, models.Article{Title: "Ship", Content: "Now."})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := NewArticleStore(path, nil)
	defer second.Close()

	got, err := second.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Title != "Ship" {
		t.Errorf("Title = %q, want Ship", got.Title)
	}
}

func TestArticleStore_ConcurrentFirstUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Save(ctx, models.Article{Title: "t", Content: "c"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Save: %v", err)
	}

	posts, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) != 8 {
		t.Errorf("len = %d, want 8", len(posts))
	}
}
