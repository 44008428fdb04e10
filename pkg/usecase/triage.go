package usecase

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/logging"
)

//go:embed prompt/triage_system.md
var triageSystemPrompt string

const (
	retrievalQueryLimit = 500
	retrievalHitCount   = 5
	fallbackQuery       = "support policy question"
	maxAppliedActions   = 5
	agentEventPrefix    = "AGENT_"
)

// TriageInput selects the issue to triage: exactly one of TicketID or
// FreeText must be set. Model optionally names the model the caller
// expects; a mismatch with the configured client is rejected.
type TriageInput struct {
	TicketID *int64
	FreeText string
	Model    string
}

// TriageResult is the outcome of one completed triage run
type TriageResult struct {
	AgentRunID types.RunID        `json:"agent_run_id"`
	Output     *model.AgentOutput `json:"result"`
}

// Triage runs the full triage pipeline for one issue: gather relational
// context, retrieve policy passages, generate a structured decision, apply
// recommended actions as ticket events and finalize the run. The flow is
// strictly linear with no retries; any failure aborts in place, leaving
// the run unfinalized as the diagnostic trace of how far it got.
func (uc *UseCases) Triage(ctx context.Context, input TriageInput) (*TriageResult, error) {
	logger := logging.From(ctx)

	if uc.llm == nil {
		return nil, goerr.New("LLM client is not configured")
	}

	freeText := strings.TrimSpace(input.FreeText)
	if (input.TicketID == nil) == (freeText == "") {
		return nil, goerr.Wrap(ErrInvalidInput, "failed to resolve triage input")
	}
	if input.Model != "" && input.Model != uc.llm.Model() {
		return nil, goerr.Wrap(ErrInvalidInput, "requested model is not configured",
			goerr.V("requested", input.Model),
			goerr.V("configured", uc.llm.Model()),
		)
	}

	var ticketContext *model.TicketContext
	issueText := freeText
	if input.TicketID != nil {
		tc, err := uc.AssembleTicketContext(ctx, *input.TicketID)
		if err != nil {
			return nil, err
		}
		ticketContext = tc
		issueText = tc.Ticket.Body
	}

	run, err := uc.repo.AgentRun().Create(ctx, &model.AgentRun{
		TicketID:  input.TicketID,
		InputText: issueText,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create agent run")
	}
	logger.Info("triage run started",
		slog.String("run_id", run.ID.String()),
		slog.Any("ticket_id", input.TicketID),
	)

	if ticketContext != nil {
		in := map[string]any{"ticket_id": *input.TicketID}
		if err := uc.logTool(ctx, run.ID, "get_ticket_context", in, ticketContext); err != nil {
			return nil, err
		}
	}

	query := issueText
	if runes := []rune(query); len(runes) > retrievalQueryLimit {
		query = string(runes[:retrievalQueryLimit])
	}
	if strings.TrimSpace(query) == "" {
		query = fallbackQuery
	}

	var hits []rag.ScoredChunk
	if uc.retrieval != nil {
		hits, err = uc.retrieval.Search(ctx, query, retrievalHitCount)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to retrieve policy context", goerr.V("run_id", run.ID))
		}
	}
	contextBlock := rag.FormatContext(hits)

	searchIn := map[string]any{"query": query, "k": retrievalHitCount}
	searchOut := map[string]any{"hits": hits, "context_block": contextBlock}
	if err := uc.logTool(ctx, run.ID, "rag_search", searchIn, searchOut); err != nil {
		return nil, err
	}

	payload, err := buildPromptPayload(input.TicketID, issueText, ticketContext, contextBlock)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build prompt payload", goerr.V("run_id", run.ID))
	}

	rawOutput, err := uc.llm.Generate(ctx, triageSystemPrompt, payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate triage output", goerr.V("run_id", run.ID))
	}

	generateIn := map[string]any{"model": uc.llm.Model(), "prompt": payload}
	generateOut := map[string]any{"raw": rawOutput}
	if err := uc.logTool(ctx, run.ID, "llm_generate", generateIn, generateOut); err != nil {
		return nil, err
	}

	output, err := model.ParseAgentOutput(rawOutput)
	if err != nil {
		return nil, goerr.Wrap(ErrMalformedOutput, "failed to parse agent output",
			goerr.V("run_id", run.ID),
			goerr.V("cause", err.Error()),
		)
	}

	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, hit.Chunk.Citation())
	}
	if err := output.CheckGrounding(sources); err != nil {
		logger.Warn("agent output failed citation grounding check",
			slog.String("run_id", run.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	if input.TicketID != nil {
		applied, err := uc.applyActions(ctx, *input.TicketID, output.RecommendedActions)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to apply recommended actions", goerr.V("run_id", run.ID))
		}

		eventsIn := map[string]any{"ticket_id": *input.TicketID, "recommended": len(output.RecommendedActions)}
		eventsOut := map[string]any{"applied": applied}
		if err := uc.logTool(ctx, run.ID, "create_ticket_events", eventsIn, eventsOut); err != nil {
			return nil, err
		}
	}

	if err := uc.repo.AgentRun().Finalize(ctx, run.ID, output.CustomerReply); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize agent run", goerr.V("run_id", run.ID))
	}

	logger.Info("triage run finalized",
		slog.String("run_id", run.ID.String()),
		slog.Int("actions", len(output.RecommendedActions)),
		slog.Int("citations", len(output.Citations)),
	)

	return &TriageResult{AgentRunID: run.ID, Output: output}, nil
}

// applyActions writes recommended actions as ticket events, capped to
// bound event-sink writes. Extra actions beyond the cap are dropped.
func (uc *UseCases) applyActions(ctx context.Context, ticketID int64, actions []model.RecommendedAction) (int, error) {
	if len(actions) > maxAppliedActions {
		actions = actions[:maxAppliedActions]
	}

	for _, action := range actions {
		payload, err := json.Marshal(map[string]string{"reason": action.Reason})
		if err != nil {
			return 0, goerr.Wrap(err, "failed to encode action payload")
		}

		_, err = uc.repo.Ticket().AddEvent(ctx, &model.TicketEvent{
			TicketID: ticketID,
			Type:     agentEventPrefix + action.Type.String(),
			Payload:  payload,
		})
		if err != nil {
			return 0, goerr.Wrap(err, "failed to add ticket event",
				goerr.V("ticket_id", ticketID),
				goerr.V("action_type", action.Type),
			)
		}
	}

	return len(actions), nil
}

func (uc *UseCases) logTool(ctx context.Context, runID types.RunID, name string, in, out any) error {
	inJSON, err := json.Marshal(in)
	if err != nil {
		return goerr.Wrap(err, "failed to encode tool input", goerr.V("tool", name))
	}
	outJSON, err := json.Marshal(out)
	if err != nil {
		return goerr.Wrap(err, "failed to encode tool output", goerr.V("tool", name))
	}

	if _, err := uc.repo.AgentRun().LogToolCall(ctx, runID, name, inJSON, outJSON); err != nil {
		return goerr.Wrap(err, "failed to log tool call", goerr.V("tool", name), goerr.V("run_id", runID))
	}
	return nil
}

type promptPayload struct {
	TicketID      *int64               `json:"ticket_id"`
	UserIssue     string               `json:"user_issue"`
	SQLContext    *model.TicketContext `json:"sql_context"`
	PolicyContext string               `json:"policy_context"`
	OutputSchema  string               `json:"output_schema"`
}

const outputSchemaReminder = "Respond with only a JSON object: " +
	"{customer_reply: string, recommended_actions: [{type, reason}], " +
	"citations: [{source, used_for}], risk_notes: [string]}"

func buildPromptPayload(ticketID *int64, issueText string, tc *model.TicketContext, policyContext string) (string, error) {
	payload := promptPayload{
		TicketID:      ticketID,
		UserIssue:     issueText,
		SQLContext:    tc,
		PolicyContext: policyContext,
		OutputSchema:  outputSchemaReminder,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
