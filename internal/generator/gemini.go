package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/thedittmer/daily-riff/internal/models"
)

// Temperature leaves room for creativity without drifting off format.
const Temperature float32 = 0.7

// GeminiClient calls the Gemini API with Google Search grounding.
type GeminiClient struct {
	// BaseURL overrides the API endpoint; empty means the SDK default.
	BaseURL string
}

// NewGeminiClient returns a client for the public Gemini API.
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{}
}

// GenerateContent sends req.Prompt to req.Model and returns the text plus grounding chunks.
func (c *GeminiClient) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	cc := &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, string(req.Model), genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(Temperature),
		// JSON response mode cannot be combined with the search tool,
		// so the format is enforced by the prompt and the normalizer.
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:   resp.Text(),
		Chunks: groundingChunks(resp),
	}, nil
}

func groundingChunks(resp *genai.GenerateContentResponse) []models.GroundingChunk {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	raw := resp.Candidates[0].GroundingMetadata.GroundingChunks
	chunks := make([]models.GroundingChunk, 0, len(raw))
	for _, c := range raw {
		if c == nil || c.Web == nil {
			chunks = append(chunks, models.GroundingChunk{})
			continue
		}
		chunks = append(chunks, models.GroundingChunk{
			Web: &models.WebSource{URI: c.Web.URI, Title: c.Web.Title},
		})
	}

	return chunks
}
