package models

// CartLine is one pending purchase entry. A cart holds at most one line per
// product id; adding the same product again accumulates Quantity while
// UnitPriceCents keeps the price captured on the first add.
type CartLine struct {
	ProductID      int64 `json:"product_id"`
	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}
