package models

import "time"

// Order is the persisted purchase aggregate. It is created atomically with
// its items; a partially stored order is never observable.
type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	PaymentMethodID int64       `json:"payment_method_id"`
	OrderDate       time.Time   `json:"order_date"`
	PostalCode      string      `json:"postal_code"`
	State           string      `json:"state"`
	City            string      `json:"city"`
	Address         string      `json:"address"`
	Items           []OrderItem `json:"items"`
}

// OrderItem belongs to exactly one order. UnitPriceCents is the price
// captured when the line entered the cart, not the live product price.
type OrderItem struct {
	ID             int64 `json:"id"`
	OrderID        int64 `json:"order_id"`
	ProductID      int64 `json:"product_id"`
	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}
