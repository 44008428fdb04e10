package interfaces

import (
	"context"
	"encoding/json"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

// AgentRunRepository defines the interface for the audit log: agent runs
// and their per-run tool call traces. Records are append-only; the only
// permitted mutation is finalizing a run once.
type AgentRunRepository interface {
	// Create creates a new agent run record with a fresh ID
	Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error)

	// Get retrieves an agent run by ID
	Get(ctx context.Context, id types.RunID) (*model.AgentRun, error)

	// Finalize sets the final answer of an unfinalized run
	Finalize(ctx context.Context, id types.RunID, finalAnswer string) error

	// LogToolCall appends one tool call record to the run's trace
	LogToolCall(ctx context.Context, runID types.RunID, name string, input, output json.RawMessage) (*model.ToolCall, error)

	// ListToolCalls retrieves the tool call trace in creation order
	ListToolCalls(ctx context.Context, runID types.RunID) ([]*model.ToolCall, error)
}
