package normalizer

import "github.com/thedittmer/daily-riff/internal/models"

// ExtractCitations collects every web URI from the grounding chunks,
// deduplicated by exact string match in first-seen order.
func ExtractCitations(chunks []models.GroundingChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	citations := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		if _, ok := seen[chunk.Web.URI]; ok {
			continue
		}
		seen[chunk.Web.URI] = struct{}{}
		citations = append(citations, chunk.Web.URI)
	}

	return citations
}
