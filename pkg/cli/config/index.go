package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Index holds CLI flags for the semantic index artifact location
type Index struct {
	dir string
}

// Flags returns CLI flags for index configuration
func (i *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-dir",
			Usage:       "Directory holding the semantic index artifacts",
			Value:       "index",
			Sources:     cli.EnvVars("OPSCOPILOT_INDEX_DIR"),
			Destination: &i.dir,
		},
	}
}

// Dir returns the configured index directory
func (i *Index) Dir() string {
	return i.dir
}

// Configure loads the persisted index. Returns nil if the artifact does
// not exist yet (policy retrieval will be disabled).
func (i *Index) Configure() (*rag.Index, error) {
	if _, err := os.Stat(i.dir); os.IsNotExist(err) {
		return nil, nil
	}

	index, err := rag.LoadIndex(i.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load index", goerr.V("dir", i.dir))
	}

	logging.Default().Info("Loaded semantic index",
		"dir", i.dir,
		"chunks", index.Len(),
		"dimension", index.Dimension(),
	)
	return index, nil
}
