package interfaces

import "github.com/m-mizutani/goerr/v2"

// ErrNotFound is returned by repositories when a referenced record does
// not exist. Backends wrap it so callers can classify lookups uniformly.
var ErrNotFound = goerr.New("record not found")

// Repository defines the interface for data persistence
type Repository interface {
	Ticket() TicketRepository
	Customer() CustomerRepository
	Order() OrderRepository
	AgentRun() AgentRunRepository

	Close() error
}
