package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/thedittmer/daily-riff/internal/models"
)

// Strategy errors.
var (
	ErrNoArray  = errors.New("no bracketed array found")
	ErrNotArray = errors.New("json value is not an array")
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```$")
)

// Strategy is one pure attempt at pulling an article array out of raw text.
type Strategy struct {
	Name  string
	Parse func(raw string) ([]models.Article, error)
}

// DefaultStrategies returns the chain in the order it is tried.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "outermost-array", Parse: parseOutermostArray},
		{Name: "fence-stripped", Parse: parseFenceStripped},
	}
}

// parseOutermostArray parses the span from the first '[' to the last ']'.
func parseOutermostArray(raw string) ([]models.Article, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, ErrNoArray
	}

	return decodeArray(raw[start : end+1])
}

// parseFenceStripped removes a ```json ... ``` wrapper and parses what is left.
func parseFenceStripped(raw string) ([]models.Article, error) {
	body := strings.TrimSpace(raw)
	body = leadingFence.ReplaceAllString(body, "")
	body = trailingFence.ReplaceAllString(body, "")

	return decodeArray(strings.TrimSpace(body))
}

func decodeArray(text string) ([]models.Article, error) {
	data := bytes.TrimSpace([]byte(text))
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotArray
	}

	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []models.Article{}
	}

	return articles, nil
}
