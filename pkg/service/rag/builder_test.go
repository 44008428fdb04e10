package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
)

// lengthEmbedder encodes each text's length so vector identity can be
// traced back to its chunk
type lengthEmbedder struct{}

func (lengthEmbedder) Generate(ctx context.Context, instructions, payload string) (string, error) {
	return "", nil
}

func (lengthEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (lengthEmbedder) Model() string {
	return "length-model"
}

func TestBuildIndex(t *testing.T) {
	t.Run("chunks all documents with metadata", func(t *testing.T) {
		docs := []rag.Document{
			{ID: "warranty.md", Title: "Warranty Policy", Text: strings.Repeat("warranty terms ", 30)},
			{ID: "refunds.md", Title: "Refund Policy", Text: "refunds within 30 days"},
		}

		index, err := rag.BuildIndex(context.Background(), lengthEmbedder{}, docs, 100, 20)
		gt.NoError(t, err).Required()
		gt.Number(t, index.Len()).Greater(2)
		gt.Value(t, index.Dimension()).Equal(2)
	})

	t.Run("chunk order survives batched embedding", func(t *testing.T) {
		// enough chunks to span several embedding batches
		var text strings.Builder
		for i := 0; i < 60; i++ {
			text.WriteString(strings.Repeat("policy", 20))
			text.WriteString(" ")
		}

		docs := []rag.Document{{ID: "big.md", Title: "Big Policy", Text: text.String()}}
		index, err := rag.BuildIndex(context.Background(), lengthEmbedder{}, docs, 120, 0)
		gt.NoError(t, err).Required()
		gt.Number(t, index.Len()).Greater(16)

		// every chunk must be retrievable under its own index position
		hits, err := index.Search([]float32{1, 0}, index.Len())
		gt.NoError(t, err).Required()
		seen := make(map[int]bool)
		for _, hit := range hits {
			gt.Value(t, hit.Chunk.DocID).Equal("big.md")
			gt.Bool(t, seen[hit.Chunk.Index]).False()
			seen[hit.Chunk.Index] = true
		}
		gt.Number(t, len(seen)).Equal(index.Len())
	})

	t.Run("no documents is an error", func(t *testing.T) {
		_, err := rag.BuildIndex(context.Background(), lengthEmbedder{}, nil, 650, 120)
		gt.Error(t, err)
	})
}
