package llm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

// Client adapts a gollem LLM client to the capability boundary the
// orchestrator depends on. The provider behind the gollem client is
// swappable without touching any caller.
type Client struct {
	llm   gollem.LLMClient
	label string
}

var _ interfaces.LLMClient = &Client{}

// New wraps a gollem client. label names the underlying model for the
// audit trail.
func New(llmClient gollem.LLMClient, label string) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Client{llm: llmClient, label: label}, nil
}

// Generate performs one structured-output turn: JSON content type, the
// triage response schema, instructions as the system prompt.
func (c *Client) Generate(ctx context.Context, instructions, payload string) (string, error) {
	session, err := c.llm.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(instructions),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(payload))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("LLM returned no text")
	}
	return resp.Texts[0], nil
}

// Embed generates embedding vectors for the given texts
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := c.llm.GenerateEmbedding(ctx, model.EmbeddingDimension, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embeddings", goerr.V("texts", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("expected", len(texts)),
			goerr.V("actual", len(embeddings)),
		)
	}

	vectors := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Model returns the label of the underlying model
func (c *Client) Model() string {
	return c.label
}

// buildResponseSchema creates the JSON schema for the triage output
func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "TriageResponse",
		Description: "Structured triage decision for a support ticket",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"customer_reply": {
				Type:        gollem.TypeString,
				Description: "The reply to send to the customer",
				Required:    true,
			},
			"recommended_actions": {
				Type:        gollem.TypeArray,
				Description: "Internal actions to take on the ticket",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"type": {
							Type:        gollem.TypeString,
							Description: "Action type: TAG, ESCALATE, REFUND, REPLACE, REQUEST_INFO or OTHER",
							Required:    true,
						},
						"reason": {
							Type:        gollem.TypeString,
							Description: "Short justification for the action",
						},
					},
				},
			},
			"citations": {
				Type:        gollem.TypeArray,
				Description: "Policy chunks the decision relies on",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"source": {
							Type:        gollem.TypeString,
							Description: "Exact source string from the supplied policy context",
							Required:    true,
						},
						"used_for": {
							Type:        gollem.TypeString,
							Description: "What this source grounds",
						},
					},
				},
			},
			"risk_notes": {
				Type:        gollem.TypeArray,
				Description: "Risk observations for the support team",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}
