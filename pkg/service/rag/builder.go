package rag

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Document is one source document to index
type Document struct {
	ID    string
	Title string
	Text  string
}

const (
	embedBatchSize   = 16
	embedConcurrency = 4
)

// BuildIndex chunks the documents, embeds every chunk and assembles the
// index. Embedding calls run in parallel batches; each batch writes its
// vectors back into a fixed slot, so chunk order survives the fan-out.
func BuildIndex(ctx context.Context, llm interfaces.LLMClient, docs []Document, size, overlap int) (*Index, error) {
	var chunks []model.Chunk
	for _, doc := range docs {
		pieces := Chunk(doc.Text, size, overlap)
		for i, piece := range pieces {
			chunks = append(chunks, model.Chunk{
				DocID:    doc.ID,
				DocTitle: doc.Title,
				Index:    i,
				Text:     piece,
			})
		}
		logging.From(ctx).Debug("chunked document",
			slog.String("doc_id", doc.ID),
			slog.Int("chunks", len(pieces)),
		)
	}

	if len(chunks) == 0 {
		return nil, goerr.New("no chunks produced from documents", goerr.V("documents", len(docs)))
	}

	vectors := make([][]float32, len(chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		offset := start
		batch := chunks[start:end]

		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}

			embeddings, err := llm.Embed(egCtx, texts)
			if err != nil {
				return goerr.Wrap(err, "failed to embed chunk batch", goerr.V("offset", offset))
			}
			if len(embeddings) != len(batch) {
				return goerr.New("embedding count mismatch",
					goerr.V("expected", len(batch)),
					goerr.V("actual", len(embeddings)),
				)
			}

			for i, vec := range embeddings {
				vectors[offset+i] = vec
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	index := NewIndex(len(vectors[0]))
	for i, chunk := range chunks {
		if err := index.Add(chunk, vectors[i]); err != nil {
			return nil, err
		}
	}

	logging.From(ctx).Info("built index",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", index.Len()),
		slog.Int("dimension", index.Dimension()),
	)
	return index, nil
}
