package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
)

type customerRepository struct {
	db *sql.DB
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	created := *customer
	if created.Tier == "" {
		created.Tier = "standard"
	}
	created.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (name, email, tier, created_at) VALUES (?, ?, ?, ?)`,
		created.Name, created.Email, created.Tier, created.CreatedAt,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert customer", goerr.V("email", created.Email))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get customer ID")
	}
	created.ID = id
	return &created, nil
}

func (r *customerRepository) Get(ctx context.Context, id int64) (*model.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, tier, created_at FROM customers WHERE id = ?`, id)

	c, err := scanCustomer(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get customer", goerr.V("id", id))
	}
	return c, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, tier, created_at FROM customers WHERE email = ?`, email)

	c, err := scanCustomer(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get customer", goerr.V("email", email))
	}
	return c, nil
}

func scanCustomer(row *sql.Row) (*model.Customer, error) {
	var c model.Customer
	var createdAt sql.NullTime
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Tier, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	return &c, nil
}
