package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
)

// NoContextMarker is rendered in place of retrieved policy text when the
// index returned nothing. The agent prompt treats it as "no grounding
// material available".
const NoContextMarker = "(no policy context available)"

// Service retrieves policy context for a query: it embeds the query and
// searches the loaded index. The index is read-only at serving time.
type Service struct {
	index *Index
	llm   interfaces.LLMClient
}

// NewService creates a retrieval service over a loaded index
func NewService(index *Index, llm interfaces.LLMClient) *Service {
	return &Service{index: index, llm: llm}
}

// Search embeds query and returns the k most similar chunks. Results come
// back score-descending; there is no score cutoff, a weak match is still
// a match.
func (s *Service) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	embeddings, err := s.llm.Embed(ctx, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("embedding response is empty", goerr.V("query", query))
	}

	hits, err := s.index.Search(embeddings[0], k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search index")
	}
	return hits, nil
}

// FormatContext renders hits as labeled text blocks for the agent prompt.
// Each block leads with the citation the agent must echo back when it
// relies on that chunk.
func FormatContext(hits []ScoredChunk) string {
	if len(hits) == 0 {
		return NoContextMarker
	}

	blocks := make([]string, 0, len(hits))
	for _, hit := range hits {
		blocks = append(blocks, fmt.Sprintf("[%s] %s", hit.Chunk.Citation(), hit.Chunk.Text))
	}
	return strings.Join(blocks, "\n---\n")
}
