package memory

import (
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
)

// ErrNotFound is the shared not-found sentinel wrapped by this backend
var ErrNotFound = interfaces.ErrNotFound

// Memory is an in-memory Repository implementation for development and tests
type Memory struct {
	ticket   *ticketRepository
	customer *customerRepository
	order    *orderRepository
	agentRun *agentRunRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	customerRepo := newCustomerRepository()
	ticketRepo := newTicketRepository(customerRepo)

	return &Memory{
		ticket:   ticketRepo,
		customer: customerRepo,
		order:    newOrderRepository(),
		agentRun: newAgentRunRepository(),
	}
}

func (m *Memory) Ticket() interfaces.TicketRepository {
	return m.ticket
}

func (m *Memory) Customer() interfaces.CustomerRepository {
	return m.customer
}

func (m *Memory) Order() interfaces.OrderRepository {
	return m.order
}

func (m *Memory) AgentRun() interfaces.AgentRunRepository {
	return m.agentRun
}

func (m *Memory) Close() error {
	return nil
}
