package model

// TicketContext is the structured context gathered for one agent run.
// It is built fresh per run and is a read-only snapshot of relational
// state at invocation time; it is never cached.
type TicketContext struct {
	Ticket         *Ticket          `json:"ticket"`
	CustomerStats  TicketStats      `json:"customer_stats"`
	RecentOrders   []*Order         `json:"recent_orders"`
	SimilarTickets []*TicketSummary `json:"similar_tickets"`
}
