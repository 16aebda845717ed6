package models

// User represents a registered customer
type User struct {
	ID       int64
	Email    string
	PassHash []byte
	Name     string
	Surname  string
}
