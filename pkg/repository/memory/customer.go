package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

type customerRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]*model.Customer
	byEmail map[string]int64
}

func newCustomerRepository() *customerRepository {
	return &customerRepository{
		entries: make(map[int64]*model.Customer),
		byEmail: make(map[string]int64),
	}
}

func copyCustomer(c *model.Customer) *model.Customer {
	copied := *c
	return &copied
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[customer.Email]; exists {
		return nil, goerr.New("customer email already exists", goerr.V("email", customer.Email))
	}

	r.nextID++
	created := copyCustomer(customer)
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()

	r.entries[created.ID] = created
	r.byEmail[created.Email] = created.ID
	return copyCustomer(created), nil
}

func (r *customerRepository) Get(ctx context.Context, id int64) (*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "customer not found", goerr.V("id", id))
	}
	return copyCustomer(c), nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[email]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "customer not found", goerr.V("email", email))
	}
	return copyCustomer(r.entries[id]), nil
}
