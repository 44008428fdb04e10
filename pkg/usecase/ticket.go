package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

const defaultTicketListLimit = 50

// ListTickets returns recent tickets, newest first
func (uc *UseCases) ListTickets(ctx context.Context, limit int) ([]*model.Ticket, error) {
	if limit <= 0 {
		limit = defaultTicketListLimit
	}

	tickets, err := uc.repo.Ticket().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets")
	}
	return tickets, nil
}

// GetTicket returns one ticket with its customer attached
func (uc *UseCases) GetTicket(ctx context.Context, id int64) (*model.Ticket, error) {
	ticket, err := uc.repo.Ticket().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTicketNotFound, "failed to get ticket", goerr.V("ticket_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
	}
	return ticket, nil
}

// GetRunTrace returns the audit trace of one agent run in creation order
func (uc *UseCases) GetRunTrace(ctx context.Context, runID types.RunID) (*model.AgentRun, []*model.ToolCall, error) {
	run, err := uc.repo.AgentRun().Get(ctx, runID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get agent run", goerr.V("run_id", runID))
	}

	calls, err := uc.repo.AgentRun().ListToolCalls(ctx, runID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list tool calls", goerr.V("run_id", runID))
	}
	return run, calls, nil
}
