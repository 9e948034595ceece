package domain

import "time"

// User roles
const (
	RoleCustomer = "customer"
	RoleHelper   = "helper"
)

// User is a marketplace account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id" db:"id"`
	Role         string    `json:"role" db:"role"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// IsValidRole reports whether role can be registered
func IsValidRole(role string) bool {
	return role == RoleCustomer || role == RoleHelper
}
