package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

type orderRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]*model.Order
}

func newOrderRepository() *orderRepository {
	return &orderRepository{
		entries: make(map[int64]*model.Order),
	}
}

func copyOrder(o *model.Order) *model.Order {
	copied := *o
	return &copied
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyOrder(order)
	r.nextID++
	created.ID = r.nextID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.entries[created.ID] = created
	return copyOrder(created), nil
}

func (r *orderRepository) ListRecentByCustomer(ctx context.Context, customerID int64, n int) ([]*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Order
	for _, o := range r.entries {
		if o.CustomerID == customerID {
			matched = append(matched, o)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if n > 0 && n < len(matched) {
		matched = matched[:n]
	}

	result := make([]*model.Order, 0, len(matched))
	for _, o := range matched {
		result = append(result, copyOrder(o))
	}
	return result, nil
}
