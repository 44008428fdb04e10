package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
	"github.com/opscopilot-dev/opscopilot/pkg/repository/memory"
	"github.com/opscopilot-dev/opscopilot/pkg/usecase"
)

func TestAssembleTicketContext(t *testing.T) {
	ctx := context.Background()

	t.Run("assembles orders, stats and similar tickets", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		customer, err := repo.Customer().Create(ctx, &model.Customer{
			Name:  "Noor Haddad",
			Email: "noor@example.com",
			Tier:  "premium",
		})
		gt.NoError(t, err).Required()

		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 7; i++ {
			_, err := repo.Order().Create(ctx, &model.Order{
				CustomerID:  customer.ID,
				ProductName: "wireless headset",
				Status:      "delivered",
				Total:       59.90,
				CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			})
			gt.NoError(t, err).Required()
		}

		ticket, err := repo.Ticket().Create(ctx, &model.Ticket{
			CustomerID: &customer.ID,
			Subject:    "Headset stopped charging",
			Body:       "my wireless headset stopped charging after two weeks",
			Priority:   types.PriorityUrgent,
		})
		gt.NoError(t, err).Required()

		_, err = repo.Ticket().Create(ctx, &model.Ticket{
			CustomerID: &customer.ID,
			Subject:    "Another headset issue",
			Body:       "the wireless headset crackles and stopped charging overnight",
			Status:     types.TicketStatusClosed,
		})
		gt.NoError(t, err).Required()

		tc, err := uc.AssembleTicketContext(ctx, ticket.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, tc.Ticket.ID).Equal(ticket.ID)
		gt.Array(t, tc.RecentOrders).Length(5)
		// newest order first
		gt.Value(t, tc.RecentOrders[0].CreatedAt).Equal(base.Add(6 * time.Hour))
		gt.Number(t, tc.CustomerStats.TotalTickets).Equal(2)
		gt.Number(t, tc.CustomerStats.HighPriorityTickets).Equal(1)
		gt.Array(t, tc.SimilarTickets).Length(1)
		gt.Value(t, tc.SimilarTickets[0].Subject).Equal("Another headset issue")
	})

	t.Run("ticket without customer yields empty customer fields", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		ticket, err := repo.Ticket().Create(ctx, &model.Ticket{
			Subject: "Anonymous question",
			Body:    "what is your shipping policy for remote regions",
		})
		gt.NoError(t, err).Required()

		tc, err := uc.AssembleTicketContext(ctx, ticket.ID)
		gt.NoError(t, err).Required()

		gt.Array(t, tc.RecentOrders).Length(0)
		gt.Array(t, tc.SimilarTickets).Length(0)
		gt.Number(t, tc.CustomerStats.TotalTickets).Equal(0)
	})

	t.Run("unknown ticket fails with not found", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.AssembleTicketContext(ctx, 404)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrTicketNotFound)).True()
	})
}
