package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

type agentRunRepository struct {
	mu      sync.RWMutex
	nextSeq int64
	runs    map[types.RunID]*model.AgentRun
	calls   map[types.RunID][]*model.ToolCall
}

func newAgentRunRepository() *agentRunRepository {
	return &agentRunRepository{
		runs:  make(map[types.RunID]*model.AgentRun),
		calls: make(map[types.RunID][]*model.ToolCall),
	}
}

func copyAgentRun(r *model.AgentRun) *model.AgentRun {
	copied := *r
	if r.TicketID != nil {
		id := *r.TicketID
		copied.TicketID = &id
	}
	if r.FinalAnswer != nil {
		answer := *r.FinalAnswer
		copied.FinalAnswer = &answer
	}
	if r.FinalizedAt != nil {
		at := *r.FinalizedAt
		copied.FinalizedAt = &at
	}
	return &copied
}

func copyToolCall(c *model.ToolCall) *model.ToolCall {
	copied := *c
	if c.Input != nil {
		copied.Input = append([]byte(nil), c.Input...)
	}
	if c.Output != nil {
		copied.Output = append([]byte(nil), c.Output...)
	}
	return &copied
}

func (r *agentRunRepository) Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyAgentRun(run)
	if created.ID == "" {
		created.ID = types.NewRunID()
	}
	created.FinalAnswer = nil
	created.FinalizedAt = nil
	created.CreatedAt = time.Now().UTC()

	r.runs[created.ID] = created
	return copyAgentRun(created), nil
}

func (r *agentRunRepository) Get(ctx context.Context, id types.RunID) (*model.AgentRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "agent run not found", goerr.V("id", id))
	}
	return copyAgentRun(run), nil
}

func (r *agentRunRepository) Finalize(ctx context.Context, id types.RunID, finalAnswer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, exists := r.runs[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "agent run not found", goerr.V("id", id))
	}
	if run.FinalAnswer != nil {
		return goerr.New("agent run already finalized", goerr.V("id", id))
	}

	now := time.Now().UTC()
	run.FinalAnswer = &finalAnswer
	run.FinalizedAt = &now
	return nil
}

func (r *agentRunRepository) LogToolCall(ctx context.Context, runID types.RunID, name string, input, output json.RawMessage) (*model.ToolCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[runID]; !exists {
		return nil, goerr.Wrap(ErrNotFound, "agent run not found", goerr.V("id", runID))
	}

	r.nextSeq++
	created := &model.ToolCall{
		Seq:       r.nextSeq,
		RunID:     runID,
		Name:      name,
		Input:     append([]byte(nil), input...),
		Output:    append([]byte(nil), output...),
		CreatedAt: time.Now().UTC(),
	}

	r.calls[runID] = append(r.calls[runID], created)
	return copyToolCall(created), nil
}

func (r *agentRunRepository) ListToolCalls(ctx context.Context, runID types.RunID) ([]*model.ToolCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calls := r.calls[runID]
	result := make([]*model.ToolCall, 0, len(calls))
	for _, c := range calls {
		result = append(result, copyToolCall(c))
	}
	return result, nil
}
