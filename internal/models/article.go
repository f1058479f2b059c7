package models

import "strings"

// Article is one generated riff. Content uses "\n" for line breaks.
type Article struct {
	Title             string   `json:"title"`
	Content           string   `json:"content"`
	SearchAttribution []string `json:"searchAttribution,omitempty"`
}

// Valid reports whether both title and content carry text.
func (a Article) Valid() bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.Content) != ""
}

// SavedArticle is an Article persisted by the local store.
// ID and CreatedAt (unix millis) are assigned at save time and never change.
type SavedArticle struct {
	Article
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
}

// GroundingChunk is one unit of search evidence returned with a generation.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// WebSource is the web part of a grounding chunk.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Generation is the normalized outcome of one generation request.
type Generation struct {
	Articles  []Article `json:"articles"`
	Citations []string  `json:"citations"`
}
