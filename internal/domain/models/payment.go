package models

// PaymentMethod is referenced by orders, never owned by them
type PaymentMethod struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
