package normalizer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/thedittmer/daily-riff/internal/models"
)

const threePosts = `[
  {"title": "The grid of inquiry", "content": "Questions first.\nAnswers later."},
  {"title": "Kash's garden", "content": "Plant it anyway."},
  {"title": "The lizard brain", "content": "It wants you to stop.\n\nShip."}
]`

func TestNewNormalizer(t *testing.T) {
	if n := New(nil); n == nil {
		t.Fatal("New returned nil")
	}
}

func TestNormalize_PlainArray(t *testing.T) {
	articles, err := New(nil).Normalize(threePosts)
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}

	if len(articles) != 3 {
		t.Fatalf("len = %d, want 3", len(articles))
	}
	if articles[0].Title != "The grid of inquiry" || articles[2].Title != "The lizard brain" {
		t.Errorf("articles out of order: %+v", articles)
	}
	if !strings.Contains(articles[0].Content, "\n") {
		t.Errorf("line breaks lost: %q", articles[0].Content)
	}
}

func TestNormalize_SurroundingProse(t *testing.T) {
	want, err := New(nil).Normalize(threePosts)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	tests := []struct {
		name   string
		prefix string
		suffix string
	}{
		{"prefix only", "Here is the JSON you asked for:\n", ""},
		{"suffix only", "", "\nLet me know if you want more."},
		{"both", "Sure! ", " Hope this helps."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(nil).Normalize(tt.prefix + threePosts + tt.suffix)
			if err != nil {
				t.Fatalf("Normalize returned unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestNormalize_FencedEqualsUnwrapped(t *testing.T) {
	n := New(nil)

	want, err := n.Normalize(threePosts)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}

	for _, raw := range []string{
		"```json\n" + threePosts + "\n```",
		"```\n" + threePosts + "\n```",
		"  ```JSON\r\n" + threePosts + "\r\n```  ",
	} {
		got, err := n.Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) returned unexpected error: %v", raw[:10], err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("fenced result differs: got %+v", got)
		}
	}
}

func TestNormalize_EmptyArray(t *testing.T) {
	articles, err := New(nil).Normalize("[]")
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Errorf("want empty non-nil slice, got %#v", articles)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no brackets", "I could not think of anything today."},
		{"fenced object", "```json\n{\"title\": \"x\", \"content\": \"y\"}\n```"},
		{"broken json", "[{\"title\": \"x\", \"content\": }]"},
		{"array of numbers", "[1, 2, 3]"},
		{"reversed brackets", "] oops ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).Normalize(tt.raw)
			if !errors.Is(err, ErrMalformedOutput) {
				t.Fatalf("err = %v, want ErrMalformedOutput", err)
			}

			var mErr *MalformedOutputError
			if !errors.As(err, &mErr) {
				t.Fatalf("err is not *MalformedOutputError: %T", err)
			}
			if mErr.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", mErr.Raw, tt.raw)
			}
		})
	}
}

func TestNormalize_InvalidElementRejectsBatch(t *testing.T) {
	raw := `[{"title": "Fine", "content": "ok"}, {"title": "", "content": "orphan"}]`

	articles, err := New(nil).Normalize(raw)
	if articles != nil {
		t.Errorf("want nil articles, got %+v", articles)
	}
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("err = %v, want ErrMalformedOutput", err)
	}
	if !errors.Is(err, ErrMissingTitle) {
		t.Errorf("err = %v, want wrapped ErrMissingTitle", err)
	}
	if !strings.Contains(err.Error(), "index 1") {
		t.Errorf("err = %v, want index 1 mentioned", err)
	}
}

func TestStrategies_Order(t *testing.T) {
	strategies := DefaultStrategies()
	if len(strategies) != 2 {
		t.Fatalf("len = %d, want 2", len(strategies))
	}
	if strategies[0].Name != "outermost-array" || strategies[1].Name != "fence-stripped" {
		t.Errorf("unexpected order: %s, %s", strategies[0].Name, strategies[1].Name)
	}
}

func TestParseOutermostArray_NoMatch(t *testing.T) {
	if _, err := parseOutermostArray("nothing here"); !errors.Is(err, ErrNoArray) {
		t.Errorf("err = %v, want ErrNoArray", err)
	}
}

func TestParseFenceStripped_NotArray(t *testing.T) {
	if _, err := parseFenceStripped("```json\n\"hello\"\n```"); !errors.Is(err, ErrNotArray) {
		t.Errorf("err = %v, want ErrNotArray", err)
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate([]models.Article{{Title: "a", Content: "b"}}); err != nil {
		t.Errorf("Validate returned unexpected error: %v", err)
	}

	err := v.Validate([]models.Article{{Title: "a", Content: "b"}, {Title: "c", Content: " "}})
	if !errors.Is(err, ErrMissingContent) {
		t.Errorf("err = %v, want ErrMissingContent", err)
	}

	err = v.Validate([]models.Article{{Title: "\t", Content: "b"}})
	if !errors.Is(err, ErrMissingTitle) {
		t.Errorf("err = %v, want ErrMissingTitle", err)
	}
	if err != nil && !strings.Contains(err.Error(), "at index 0") {
		t.Errorf("err = %v, want the failing index", err)
	}
}
