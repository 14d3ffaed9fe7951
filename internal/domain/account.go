package domain

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleRegular Role = "Regular"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRegular
}

// Account is the domain model for a registered user.
type Account struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
