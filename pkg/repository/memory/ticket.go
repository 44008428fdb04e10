package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

type ticketRepository struct {
	mu          sync.RWMutex
	nextID      int64
	nextEventID int64
	entries     map[int64]*model.Ticket
	events      map[int64][]*model.TicketEvent

	customers *customerRepository
}

func newTicketRepository(customers *customerRepository) *ticketRepository {
	return &ticketRepository{
		entries:   make(map[int64]*model.Ticket),
		events:    make(map[int64][]*model.TicketEvent),
		customers: customers,
	}
}

func copyTicket(t *model.Ticket) *model.Ticket {
	copied := *t
	if t.CustomerID != nil {
		id := *t.CustomerID
		copied.CustomerID = &id
	}
	if t.Customer != nil {
		copied.Customer = copyCustomer(t.Customer)
	}
	return &copied
}

func copyTicketEvent(ev *model.TicketEvent) *model.TicketEvent {
	copied := *ev
	if ev.Payload != nil {
		copied.Payload = append([]byte(nil), ev.Payload...)
	}
	return &copied
}

func (r *ticketRepository) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyTicket(ticket)
	r.nextID++
	created.ID = r.nextID
	created.Status = created.Status.Normalize()
	created.Priority = created.Priority.Normalize()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.Customer = nil

	r.entries[created.ID] = created
	return r.withCustomer(ctx, created)
}

func (r *ticketRepository) Get(ctx context.Context, id int64) (*model.Ticket, error) {
	r.mu.RLock()
	t, exists := r.entries[id]
	r.mu.RUnlock()
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}
	return r.withCustomer(ctx, t)
}

func (r *ticketRepository) List(ctx context.Context, limit int) ([]*model.Ticket, error) {
	r.mu.RLock()
	all := make([]*model.Ticket, 0, len(r.entries))
	for _, t := range r.entries {
		all = append(all, t)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	result := make([]*model.Ticket, 0, len(all))
	for _, t := range all {
		withCustomer, err := r.withCustomer(ctx, t)
		if err != nil {
			return nil, err
		}
		result = append(result, withCustomer)
	}
	return result, nil
}

func (r *ticketRepository) Stats(ctx context.Context, customerID int64) (*model.TicketStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.TicketStats{}
	for _, t := range r.entries {
		if t.CustomerID == nil || *t.CustomerID != customerID {
			continue
		}
		stats.TotalTickets++
		switch t.Status {
		case types.TicketStatusOpen:
			stats.OpenTickets++
		case types.TicketStatusClosed:
			stats.ClosedTickets++
		}
		if t.Priority.IsHigh() {
			stats.HighPriorityTickets++
		}
	}
	return stats, nil
}

func (r *ticketRepository) FindSimilar(ctx context.Context, ticketID int64, k int) ([]*model.TicketSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	self, exists := r.entries[ticketID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", ticketID))
	}

	tokens := model.KeywordTokens(self.Body)
	if len(tokens) == 0 {
		return []*model.TicketSummary{}, nil
	}

	var matched []*model.Ticket
	for _, t := range r.entries {
		if t.ID == ticketID {
			continue
		}
		body := strings.ToLower(t.Body)
		for _, tok := range tokens {
			if strings.Contains(body, tok) {
				matched = append(matched, t)
				break
			}
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if k > 0 && k < len(matched) {
		matched = matched[:k]
	}

	result := make([]*model.TicketSummary, 0, len(matched))
	for _, t := range matched {
		result = append(result, t.Summary())
	}
	return result, nil
}

func (r *ticketRepository) AddEvent(ctx context.Context, event *model.TicketEvent) (*model.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[event.TicketID]; !exists {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", event.TicketID))
	}

	created := copyTicketEvent(event)
	r.nextEventID++
	created.ID = r.nextEventID
	created.CreatedAt = time.Now().UTC()

	r.events[event.TicketID] = append(r.events[event.TicketID], created)
	return copyTicketEvent(created), nil
}

func (r *ticketRepository) ListEvents(ctx context.Context, ticketID int64) ([]*model.TicketEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[ticketID]
	result := make([]*model.TicketEvent, 0, len(events))
	for _, ev := range events {
		result = append(result, copyTicketEvent(ev))
	}
	return result, nil
}

func (r *ticketRepository) withCustomer(ctx context.Context, t *model.Ticket) (*model.Ticket, error) {
	copied := copyTicket(t)
	if copied.CustomerID == nil {
		return copied, nil
	}

	customer, err := r.customers.Get(ctx, *copied.CustomerID)
	if err != nil {
		return nil, goerr.Wrap(err, "ticket references unknown customer",
			goerr.V("ticket_id", t.ID),
			goerr.V("customer_id", *copied.CustomerID),
		)
	}
	copied.Customer = customer
	return copied, nil
}
