package normalizer

import (
	"sort"
	"testing"

	"github.com/thedittmer/daily-riff/internal/models"
)

func web(uri string) models.GroundingChunk {
	return models.GroundingChunk{Web: &models.WebSource{URI: uri, Title: uri}}
}

func TestExtractCitations_Dedup(t *testing.T) {
	chunks := []models.GroundingChunk{
		web("https://example.com/a"),
		web("https://example.com/b"),
		web("https://example.com/a"),
		{},
		web(""),
		web("https://example.com/b"),
	}

	got := ExtractCitations(chunks)
	sort.Strings(got)

	want := []string{"https://example.com/a", "https://example.com/b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExtractCitations_Empty(t *testing.T) {
	if got := ExtractCitations(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
