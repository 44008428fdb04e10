package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

type orderRepository struct {
	db *sql.DB
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	created := *order
	created.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (customer_id, product_name, product_category, status, total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		created.CustomerID, created.ProductName, nullString(created.ProductCategory),
		created.Status, created.Total, created.CreatedAt,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert order", goerr.V("customer_id", created.CustomerID))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get order ID")
	}
	created.ID = id
	return &created, nil
}

func (r *orderRepository) ListRecentByCustomer(ctx context.Context, customerID int64, n int) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, product_name, product_category, status, total, created_at
		 FROM orders WHERE customer_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		customerID, n,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list orders", goerr.V("customer_id", customerID))
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		var o model.Order
		var category sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.ProductName, &category, &o.Status, &o.Total, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan order")
		}
		if category.Valid {
			o.ProductCategory = category.String
		}
		if createdAt.Valid {
			o.CreatedAt = createdAt.Time
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate orders")
	}
	return orders, nil
}
