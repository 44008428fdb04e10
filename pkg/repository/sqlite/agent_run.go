package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

type agentRunRepository struct {
	db *sql.DB
}

func (r *agentRunRepository) Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error) {
	created := *run
	if created.ID == "" {
		created.ID = types.NewRunID()
	}
	created.CreatedAt = time.Now().UTC()
	created.FinalAnswer = nil
	created.FinalizedAt = nil

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agent_runs (id, ticket_id, input_text, created_at) VALUES (?, ?, ?, ?)`,
		string(created.ID), nullInt64(created.TicketID), created.InputText, created.CreatedAt,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert agent run", goerr.V("run_id", created.ID))
	}
	return &created, nil
}

func (r *agentRunRepository) Get(ctx context.Context, id types.RunID) (*model.AgentRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, ticket_id, input_text, final_answer, created_at, finalized_at
		 FROM agent_runs WHERE id = ?`, string(id))

	run, err := scanAgentRun(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent run", goerr.V("run_id", id))
	}
	return run, nil
}

// Finalize records the final answer of an unfinalized run. The guard in
// the WHERE clause makes finalization a one-shot operation even under
// concurrent callers.
func (r *agentRunRepository) Finalize(ctx context.Context, id types.RunID, finalAnswer string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agent_runs SET final_answer = ?, finalized_at = ? WHERE id = ? AND final_answer IS NULL`,
		finalAnswer, time.Now().UTC(), string(id),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to finalize agent run", goerr.V("run_id", id))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check finalize result", goerr.V("run_id", id))
	}
	if affected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return goerr.New("agent run already finalized", goerr.V("run_id", id))
	}
	return nil
}

func (r *agentRunRepository) LogToolCall(ctx context.Context, runID types.RunID, name string, input, output json.RawMessage) (*model.ToolCall, error) {
	call := &model.ToolCall{
		RunID:     runID,
		Name:      name,
		Input:     normalizeJSON(input),
		Output:    normalizeJSON(output),
		CreatedAt: time.Now().UTC(),
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tool_calls (agent_run_id, tool_name, tool_input_json, tool_output_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(runID), name, string(call.Input), string(call.Output), call.CreatedAt,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert tool call", goerr.V("run_id", runID), goerr.V("tool", name))
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get tool call ID")
	}
	call.Seq = seq
	return call, nil
}

func (r *agentRunRepository) ListToolCalls(ctx context.Context, runID types.RunID) ([]*model.ToolCall, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agent_run_id, tool_name, tool_input_json, tool_output_json, created_at
		 FROM tool_calls WHERE agent_run_id = ? ORDER BY id ASC`,
		string(runID),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tool calls", goerr.V("run_id", runID))
	}
	defer rows.Close()

	var calls []*model.ToolCall
	for rows.Next() {
		var call model.ToolCall
		var id, name, inputJSON, outputJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&call.Seq, &id, &name, &inputJSON, &outputJSON, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan tool call")
		}
		call.RunID = types.RunID(id)
		call.Name = name
		call.Input = json.RawMessage(inputJSON)
		call.Output = json.RawMessage(outputJSON)
		if createdAt.Valid {
			call.CreatedAt = createdAt.Time
		}
		calls = append(calls, &call)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate tool calls")
	}
	return calls, nil
}

func scanAgentRun(row *sql.Row) (*model.AgentRun, error) {
	var run model.AgentRun
	var id string
	var ticketID sql.NullInt64
	var finalAnswer sql.NullString
	var createdAt, finalizedAt sql.NullTime
	if err := row.Scan(&id, &ticketID, &run.InputText, &finalAnswer, &createdAt, &finalizedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	run.ID = types.RunID(id)
	if ticketID.Valid {
		v := ticketID.Int64
		run.TicketID = &v
	}
	if finalAnswer.Valid {
		v := finalAnswer.String
		run.FinalAnswer = &v
	}
	if createdAt.Valid {
		run.CreatedAt = createdAt.Time
	}
	if finalizedAt.Valid {
		t := finalizedAt.Time
		run.FinalizedAt = &t
	}
	return &run, nil
}

func normalizeJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
