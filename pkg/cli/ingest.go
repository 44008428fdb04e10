package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/opscopilot-dev/opscopilot/pkg/cli/config"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var docsDir string
	var chunkSize, chunkOverlap int
	var llmCfg config.LLM
	var indexCfg config.Index

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "docs-dir",
			Usage:       "Directory of policy documents to index",
			Value:       "docs",
			Sources:     cli.EnvVars("OPSCOPILOT_DOCS_DIR"),
			Destination: &docsDir,
		},
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk window size in characters",
			Value:       rag.DefaultChunkSize,
			Destination: &chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Characters shared by adjacent chunks",
			Value:       rag.DefaultChunkOverlap,
			Destination: &chunkOverlap,
		},
	}
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Chunk and embed policy documents into the semantic index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}
			if llmClient == nil {
				return goerr.New("LLM provider credentials are required for ingest")
			}

			docs, err := loadDocuments(docsDir)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return goerr.New("no documents found", goerr.V("dir", docsDir))
			}

			index, err := rag.BuildIndex(ctx, llmClient, docs, chunkSize, chunkOverlap)
			if err != nil {
				return goerr.Wrap(err, "failed to build index")
			}

			if err := index.Save(indexCfg.Dir()); err != nil {
				return goerr.Wrap(err, "failed to save index", goerr.V("dir", indexCfg.Dir()))
			}

			logging.Default().Info("Index written",
				"dir", indexCfg.Dir(),
				"documents", len(docs),
				"chunks", index.Len(),
			)
			return nil
		},
	}
}

// loadDocuments reads every document in dir in name order. The first line
// of a file, stripped of markdown heading markers, is its title.
func loadDocuments(dir string) ([]rag.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read documents directory", goerr.V("dir", dir))
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]rag.Document, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read document", goerr.V("name", name))
		}

		docs = append(docs, rag.Document{
			ID:    name,
			Title: documentTitle(name, string(data)),
			Text:  string(data),
		})
	}
	return docs, nil
}

func documentTitle(name, text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	title := strings.TrimSpace(strings.TrimLeft(line, "# "))
	if title == "" {
		return name
	}
	return title
}
