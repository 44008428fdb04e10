package model

import (
	"encoding/json"
	"time"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

// AgentRun represents one end-to-end invocation of the triage pipeline.
// Exactly one record is created per invocation, before any external call.
// FinalAnswer is the only mutable field: it stays nil until the run
// finalizes, so an unfinalized run is observable as a diagnostic signal.
type AgentRun struct {
	ID          types.RunID `json:"id"`
	TicketID    *int64      `json:"ticket_id,omitempty"`
	InputText   string      `json:"input_text"`
	FinalAnswer *string     `json:"final_answer,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty"`
}

// Finalized reports whether the run completed and recorded its answer
func (r *AgentRun) Finalized() bool {
	return r.FinalAnswer != nil
}

// ToolCall is one append-only audit record of a tool invocation within a
// run. Ordering by Seq (creation order) defines the audit trace.
type ToolCall struct {
	Seq       int64           `json:"id"`
	RunID     types.RunID     `json:"agent_run_id"`
	Name      string          `json:"tool_name"`
	Input     json.RawMessage `json:"tool_input"`
	Output    json.RawMessage `json:"tool_output"`
	CreatedAt time.Time       `json:"created_at"`
}
