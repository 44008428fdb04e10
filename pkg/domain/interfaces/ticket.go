package interfaces

import (
	"context"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

// TicketRepository defines the interface for Ticket data persistence
type TicketRepository interface {
	// Create creates a new ticket and assigns its ID
	Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)

	// Get retrieves a ticket by ID, with its customer attached when present
	Get(ctx context.Context, id int64) (*model.Ticket, error)

	// List retrieves tickets ordered by creation time descending
	List(ctx context.Context, limit int) ([]*model.Ticket, error)

	// Stats returns aggregate ticket counts for a customer
	Stats(ctx context.Context, customerID int64) (*model.TicketStats, error)

	// FindSimilar returns up to k other tickets whose body contains any of
	// the keyword tokens of the given ticket, newest first. Keyword matching
	// is a deliberate non-semantic surrogate for similarity search.
	FindSimilar(ctx context.Context, ticketID int64, k int) ([]*model.TicketSummary, error)

	// AddEvent appends a ticket event
	AddEvent(ctx context.Context, event *model.TicketEvent) (*model.TicketEvent, error)

	// ListEvents retrieves events for a ticket in append order
	ListEvents(ctx context.Context, ticketID int64) ([]*model.TicketEvent, error)
}
