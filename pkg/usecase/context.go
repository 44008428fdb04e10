package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

const (
	recentOrderCount   = 5
	similarTicketCount = 5
)

// AssembleTicketContext gathers the structured context for one ticket: the
// ticket itself, the customer's order history and ticket statistics, and a
// keyword-similarity set of other tickets. A ticket without a customer
// yields empty customer-dependent fields, not an error.
func (uc *UseCases) AssembleTicketContext(ctx context.Context, ticketID int64) (*model.TicketContext, error) {
	ticket, err := uc.repo.Ticket().Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTicketNotFound, "failed to assemble context", goerr.V("ticket_id", ticketID))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", ticketID))
	}

	tc := &model.TicketContext{
		Ticket:         ticket,
		RecentOrders:   []*model.Order{},
		SimilarTickets: []*model.TicketSummary{},
	}

	if ticket.CustomerID != nil {
		orders, err := uc.repo.Order().ListRecentByCustomer(ctx, *ticket.CustomerID, recentOrderCount)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list recent orders", goerr.V("customer_id", *ticket.CustomerID))
		}
		if orders != nil {
			tc.RecentOrders = orders
		}

		stats, err := uc.repo.Ticket().Stats(ctx, *ticket.CustomerID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get ticket stats", goerr.V("customer_id", *ticket.CustomerID))
		}
		tc.CustomerStats = *stats
	}

	similar, err := uc.repo.Ticket().FindSimilar(ctx, ticketID, similarTicketCount)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find similar tickets", goerr.V("ticket_id", ticketID))
	}
	if similar != nil {
		tc.SimilarTickets = similar
	}

	return tc, nil
}
