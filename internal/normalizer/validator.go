package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thedittmer/daily-riff/internal/models"
)

// Validation errors.
var (
	ErrMissingTitle   = errors.New("article missing title")
	ErrMissingContent = errors.New("article missing content")
)

// Validator checks a parsed batch. One bad element rejects the whole batch.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that every article has a title and content.
func (v *Validator) Validate(articles []models.Article) error {
	for i, a := range articles {
		if a.Valid() {
			continue
		}

		if strings.TrimSpace(a.Title) == "" {
			return fmt.Errorf("%w at index %d", ErrMissingTitle, i)
		}
		return fmt.Errorf("%w at index %d", ErrMissingContent, i)
	}

	return nil
}
