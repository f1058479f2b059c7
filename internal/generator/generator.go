// Package generator asks the language model for riffs and normalizes the reply.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
	"github.com/thedittmer/daily-riff/internal/normalizer"
)

// Generation errors.
var (
	ErrMissingCredential = errors.New("gemini api key is not configured")
	ErrInvalidCredential = errors.New("gemini rejected the api key")
	ErrEmptyOutput       = errors.New("gemini returned no content")
	ErrEmptyTopic        = errors.New("topic is empty")
	ErrRequestFailed     = errors.New("gemini request failed")
)

// Request is one composed generation call.
type Request struct {
	APIKey string
	Model  models.Model
	Prompt string
}

// Response is the raw model reply.
type Response struct {
	Text   string
	Chunks []models.GroundingChunk
}

// Client sends a composed prompt to a model.
type Client interface {
	GenerateContent(ctx context.Context, req Request) (*Response, error)
}

// Generator composes prompts, calls the model once and normalizes the reply.
type Generator struct {
	client     Client
	normalizer *normalizer.Normalizer
	logger     *logger.Logger
}

// New creates a generator around client.
func New(client Client, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Discard()
	}

	return &Generator{
		client:     client,
		normalizer: normalizer.New(log),
		logger:     log.With("component", "generator"),
	}
}

// Generate produces riffs for topic. There is no retry; callers re-invoke on failure.
func (g *Generator) Generate(ctx context.Context, apiKey string, model models.Model, topic string) (*models.Generation, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}

	g.logger.Info("generating riffs", "model", model, "topic", topic)

	resp, err := g.client.GenerateContent(ctx, Request{
		APIKey: apiKey,
		Model:  model,
		Prompt: ComposePrompt(topic),
	})
	if err != nil {
		g.logger.Error("gemini request failed", "error", err)
		if strings.Contains(strings.ToLower(err.Error()), "api key") {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, ErrEmptyOutput
	}

	citations := normalizer.ExtractCitations(resp.Chunks)

	articles, err := g.normalizer.Normalize(resp.Text)
	if err != nil {
		g.logger.Debug("citations discarded with rejected output", "citations", len(citations))
		return nil, err
	}

	g.logger.Info("riffs generated", "articles", len(articles), "citations", len(citations))
	return &models.Generation{
		Articles:  articles,
		Citations: citations,
	}, nil
}
