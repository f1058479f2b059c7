package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thedittmer/daily-riff/internal/models"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// frontMatter is the YAML header written above each dumped riff.
type frontMatter struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	CreatedAt string   `yaml:"created_at"`
	Sources   []string `yaml:"sources,omitempty"`
}

// DumpMarkdown writes each post to dir as <slug>.md and returns the paths written.
func DumpMarkdown(dir string, posts []models.SavedArticle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}

	used := make(map[string]bool, len(posts))
	paths := make([]string, 0, len(posts))

	for _, post := range posts {
		data, err := RenderMarkdown(post)
		if err != nil {
			return paths, err
		}

		base := Slugify(post.Title)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true

		path := filepath.Join(dir, name+".md")
		if err := WriteFileAtomic(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// RenderMarkdown formats one post as front matter plus body.
func RenderMarkdown(post models.SavedArticle) ([]byte, error) {
	meta := frontMatter{
		ID:        post.ID,
		Title:     post.Title,
		CreatedAt: time.UnixMilli(post.CreatedAt).UTC().Format(time.RFC3339),
		Sources:   post.SearchAttribution,
	}

	header, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString("# ")
	buf.WriteString(post.Title)
	buf.WriteString("\n\n")
	buf.WriteString(strings.TrimSpace(post.Content))
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// Slugify lowercases title and joins its alphanumeric runs with dashes.
func Slugify(title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "untitled"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	return slug
}
