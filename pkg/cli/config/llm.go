package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	llmsvc "github.com/opscopilot-dev/opscopilot/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the language-model client
type LLM struct {
	provider     string
	projectID    string
	location     string
	openAIAPIKey string
	model        string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (gemini or openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("OPSCOPILOT_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("OPSCOPILOT_GEMINI_PROJECT"),
			Destination: &l.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("OPSCOPILOT_GEMINI_LOCATION"),
			Destination: &l.location,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPSCOPILOT_OPENAI_API_KEY"),
			Destination: &l.openAIAPIKey,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model label recorded in the audit trail",
			Value:       "gemini-2.0-flash",
			Sources:     cli.EnvVars("OPSCOPILOT_MODEL"),
			Destination: &l.model,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", l.provider),
		slog.String("project_id", l.projectID),
		slog.String("location", l.location),
		slog.String("model", l.model),
	}
}

// Configure creates the language-model client from the configured flags.
// Returns nil if the selected provider has no credentials configured
// (triage features will be disabled).
func (l *LLM) Configure(ctx context.Context) (interfaces.LLMClient, error) {
	var client gollem.LLMClient

	switch l.provider {
	case "gemini":
		if l.projectID == "" {
			return nil, nil
		}
		c, err := gemini.New(ctx, l.projectID, l.location)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		client = c

	case "openai":
		if l.openAIAPIKey == "" {
			return nil, nil
		}
		c, err := openai.New(ctx, l.openAIAPIKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		client = c

	default:
		return nil, goerr.New("unknown LLM provider", goerr.V("provider", l.provider))
	}

	return llmsvc.New(client, l.model)
}
