package models

// Product is a catalog item. PriceCents is the live price; carts and order
// items capture their own unit price, so changing it never rewrites history.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	ImageFile   string `json:"image_file,omitempty"`
}
