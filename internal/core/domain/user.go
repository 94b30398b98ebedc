package domain

import "time"

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "Admin"
)

// User is a front-end login account. CustomerID links it to the Customer
// record held by the API.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CustomerID   string
	CreatedAt    time.Time
}

// Principal is the authenticated caller. It is resolved once per request and
// handed to services explicitly.
type Principal struct {
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	CustomerID string `json:"customerId"`
	Role       Role   `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
