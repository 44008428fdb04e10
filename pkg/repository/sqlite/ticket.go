package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

type ticketRepository struct {
	db *sql.DB
}

const ticketColumns = `
	t.id, t.customer_id, t.subject, t.body, t.status, t.priority, t.category, t.created_at,
	c.id, c.name, c.email, c.tier, c.created_at`

const ticketSelect = `
	SELECT ` + ticketColumns + `
	FROM tickets t
	LEFT JOIN customers c ON c.id = t.customer_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	created := *ticket
	created.Status = created.Status.Normalize()
	created.Priority = created.Priority.Normalize()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (customer_id, subject, body, status, priority, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(created.CustomerID), created.Subject, created.Body,
		created.Status.String(), created.Priority.String(), nullString(created.Category),
		created.CreatedAt,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert ticket")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get ticket ID")
	}
	return r.Get(ctx, id)
}

func (r *ticketRepository) Get(ctx context.Context, id int64) (*model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, ticketSelect+` WHERE t.id = ?`, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query ticket", goerr.V("id", id))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, goerr.Wrap(err, "failed to read ticket", goerr.V("id", id))
		}
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("id", id))
	}

	t, err := scanTicket(rows)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan ticket", goerr.V("id", id))
	}
	return t, nil
}

func (r *ticketRepository) List(ctx context.Context, limit int) ([]*model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		ticketSelect+` ORDER BY t.created_at DESC, t.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets")
	}
	defer rows.Close()

	return collectTickets(rows)
}

func (r *ticketRepository) Stats(ctx context.Context, customerID int64) (*model.TicketStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'open' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'closed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority IN ('high', 'urgent') THEN 1 ELSE 0 END), 0)
		FROM tickets
		WHERE customer_id = ?`, customerID)

	var stats model.TicketStats
	if err := row.Scan(
		&stats.TotalTickets, &stats.OpenTickets,
		&stats.ClosedTickets, &stats.HighPriorityTickets,
	); err != nil {
		return nil, goerr.Wrap(err, "failed to get ticket stats", goerr.V("customer_id", customerID))
	}
	return &stats, nil
}

func (r *ticketRepository) FindSimilar(ctx context.Context, ticketID int64, k int) ([]*model.TicketSummary, error) {
	self, err := r.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	tokens := model.KeywordTokens(self.Body)
	if len(tokens) == 0 {
		return []*model.TicketSummary{}, nil
	}

	conds := make([]string, 0, len(tokens))
	args := make([]any, 0, len(tokens)+2)
	args = append(args, ticketID)
	for _, tok := range tokens {
		conds = append(conds, "lower(body) LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	args = append(args, k)

	rows, err := r.db.QueryContext(ctx,
		ticketSelect+` WHERE t.id != ? AND (`+strings.Join(conds, " OR ")+`)
		 ORDER BY t.created_at DESC, t.id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query similar tickets", goerr.V("ticket_id", ticketID))
	}
	defer rows.Close()

	tickets, err := collectTickets(rows)
	if err != nil {
		return nil, err
	}

	result := make([]*model.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		result = append(result, t.Summary())
	}
	return result, nil
}

func (r *ticketRepository) AddEvent(ctx context.Context, event *model.TicketEvent) (*model.TicketEvent, error) {
	created := *event
	created.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_events (ticket_id, event_type, payload_json, created_at)
		 VALUES (?, ?, ?, ?)`,
		created.TicketID, created.Type, string(created.Payload), created.CreatedAt,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert ticket event", goerr.V("ticket_id", created.TicketID))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get ticket event ID")
	}
	created.ID = id
	return &created, nil
}

func (r *ticketRepository) ListEvents(ctx context.Context, ticketID int64) ([]*model.TicketEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ticket_id, event_type, payload_json, created_at
		 FROM ticket_events WHERE ticket_id = ? ORDER BY id ASC`, ticketID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list ticket events", goerr.V("ticket_id", ticketID))
	}
	defer rows.Close()

	var result []*model.TicketEvent
	for rows.Next() {
		var ev model.TicketEvent
		var payload string
		var createdAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.TicketID, &ev.Type, &payload, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan ticket event")
		}
		ev.Payload = []byte(payload)
		if createdAt.Valid {
			ev.CreatedAt = createdAt.Time
		}
		result = append(result, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read ticket events")
	}
	if result == nil {
		result = []*model.TicketEvent{}
	}
	return result, nil
}

func scanTicket(rows *sql.Rows) (*model.Ticket, error) {
	var t model.Ticket
	var customerID sql.NullInt64
	var category sql.NullString
	var createdAt sql.NullTime
	var status, priority string

	var cID sql.NullInt64
	var cName, cEmail, cTier sql.NullString
	var cCreatedAt sql.NullTime

	if err := rows.Scan(
		&t.ID, &customerID, &t.Subject, &t.Body, &status, &priority, &category, &createdAt,
		&cID, &cName, &cEmail, &cTier, &cCreatedAt,
	); err != nil {
		return nil, err
	}

	t.Status = types.TicketStatus(status)
	t.Priority = types.TicketPriority(priority)
	t.Category = category.String
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if customerID.Valid {
		id := customerID.Int64
		t.CustomerID = &id
	}
	if cID.Valid {
		t.Customer = &model.Customer{
			ID:    cID.Int64,
			Name:  cName.String,
			Email: cEmail.String,
			Tier:  cTier.String,
		}
		if cCreatedAt.Valid {
			t.Customer.CreatedAt = cCreatedAt.Time
		}
	}
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]*model.Ticket, error) {
	var result []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan ticket")
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read tickets")
	}
	if result == nil {
		result = []*model.Ticket{}
	}
	return result, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
