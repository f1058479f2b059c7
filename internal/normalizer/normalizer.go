// Package normalizer turns loosely formatted model output into articles.
package normalizer

import (
	"errors"
	"fmt"

	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
)

// ErrMalformedOutput is the error kind for output that is not a usable JSON array of articles.
var ErrMalformedOutput = errors.New("malformed generation output")

// MalformedOutputError carries the raw model text for diagnostics.
// Raw must never be shown to the end user.
type MalformedOutputError struct {
	Raw    string
	Reason error
}

func (e *MalformedOutputError) Error() string {
	if e.Reason == nil {
		return ErrMalformedOutput.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMalformedOutput, e.Reason)
}

func (e *MalformedOutputError) Unwrap() error { return e.Reason }

// Is lets errors.Is(err, ErrMalformedOutput) match.
func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// Normalizer runs an ordered chain of parse strategies and validates the winner.
type Normalizer struct {
	strategies []Strategy
	validator  *Validator
	logger     *logger.Logger
}

// New creates a normalizer with the default strategy chain.
func New(log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Discard()
	}

	return &Normalizer{
		strategies: DefaultStrategies(),
		validator:  NewValidator(),
		logger:     log,
	}
}

// Normalize extracts the article array from raw. First successful strategy wins.
func (n *Normalizer) Normalize(raw string) ([]models.Article, error) {
	var lastErr error

	for _, s := range n.strategies {
		articles, err := s.Parse(raw)
		if err == nil {
			if verr := n.validator.Validate(articles); verr != nil {
				return nil, n.fail(raw, verr)
			}
			n.logger.Debug("generation output parsed", "strategy", s.Name, "articles", len(articles))
			return articles, nil
		}

		n.logger.Debug("parse strategy failed", "strategy", s.Name, "error", err)
		lastErr = err
	}

	return nil, n.fail(raw, lastErr)
}

func (n *Normalizer) fail(raw string, reason error) error {
	n.logger.Warn("generation output rejected", "error", reason, "raw", raw)
	return &MalformedOutputError{Raw: raw, Reason: reason}
}
