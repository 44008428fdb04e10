package interfaces

import (
	"context"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

// CustomerRepository defines the interface for Customer data persistence
type CustomerRepository interface {
	// Create creates a new customer and assigns its ID
	Create(ctx context.Context, customer *model.Customer) (*model.Customer, error)

	// Get retrieves a customer by ID
	Get(ctx context.Context, id int64) (*model.Customer, error)

	// GetByEmail retrieves a customer by email address
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
}
