package interfaces

import (
	"context"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

// OrderRepository defines the interface for Order data persistence
type OrderRepository interface {
	// Create creates a new order and assigns its ID
	Create(ctx context.Context, order *model.Order) (*model.Order, error)

	// ListRecentByCustomer retrieves up to n orders for a customer,
	// ordered by creation time descending
	ListRecentByCustomer(ctx context.Context, customerID int64, n int) ([]*model.Order, error)
}
