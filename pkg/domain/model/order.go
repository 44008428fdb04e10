package model

import "time"

// Order represents a customer purchase
type Order struct {
	ID              int64     `json:"order_id"`
	CustomerID      int64     `json:"customer_id"`
	ProductName     string    `json:"product_name"`
	ProductCategory string    `json:"product_category,omitempty"`
	Status          string    `json:"order_status"`
	Total           float64   `json:"total"`
	CreatedAt       time.Time `json:"created_at"`
}
