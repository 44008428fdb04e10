package cli

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
	"github.com/opscopilot-dev/opscopilot/pkg/repository/memory"
)

func TestLoadFixture(t *testing.T) {
	ctx := context.Background()

	t.Run("loads customers, orders and tickets", func(t *testing.T) {
		repo := memory.New()
		fixture := &seedFixture{
			Customers: []seedCustomer{
				{Name: "Rae Park", Email: "rae@example.com", Tier: "premium"},
			},
			Orders: []seedOrder{
				{CustomerEmail: "rae@example.com", ProductName: "desk lamp", Status: "delivered", Total: 24.50},
			},
			Tickets: []seedTicket{
				{CustomerEmail: "rae@example.com", Subject: "Lamp flickers", Body: "the desk lamp flickers constantly", Priority: "high"},
				{Subject: "General question", Body: "how long is shipping to alaska"},
			},
		}

		gt.NoError(t, loadFixture(ctx, repo, fixture)).Required()

		tickets, err := repo.Ticket().List(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, tickets).Length(2)

		customer, err := repo.Customer().GetByEmail(ctx, "rae@example.com")
		gt.NoError(t, err).Required()

		orders, err := repo.Order().ListRecentByCustomer(ctx, customer.ID, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, orders).Length(1)
	})

	t.Run("empty status and priority default", func(t *testing.T) {
		repo := memory.New()
		fixture := &seedFixture{
			Tickets: []seedTicket{
				{Subject: "Defaults", Body: "no status or priority given"},
			},
		}

		gt.NoError(t, loadFixture(ctx, repo, fixture)).Required()

		tickets, err := repo.Ticket().List(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Value(t, tickets[0].Status).Equal(types.TicketStatusOpen)
		gt.Value(t, tickets[0].Priority).Equal(types.PriorityNormal)
	})

	t.Run("invalid ticket priority is rejected", func(t *testing.T) {
		fixture := &seedFixture{
			Tickets: []seedTicket{
				{Subject: "Bad priority", Body: "body", Priority: "critical"},
			},
		}
		gt.Error(t, loadFixture(ctx, memory.New(), fixture))
	})

	t.Run("invalid ticket status is rejected", func(t *testing.T) {
		fixture := &seedFixture{
			Tickets: []seedTicket{
				{Subject: "Bad status", Body: "body", Status: "archived"},
			},
		}
		gt.Error(t, loadFixture(ctx, memory.New(), fixture))
	})

	t.Run("order referencing unknown customer is rejected", func(t *testing.T) {
		fixture := &seedFixture{
			Orders: []seedOrder{
				{CustomerEmail: "nobody@example.com", ProductName: "mug"},
			},
		}
		gt.Error(t, loadFixture(ctx, memory.New(), fixture))
	})
}
