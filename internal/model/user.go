package model

import "time"

// Role constants for the users table discriminator.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User holds the identity fields shared by admins and members.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Admin is a user with the admin role and its role-specific fields.
type Admin struct {
	User
	Position string `json:"position,omitempty"`
}

// Credentials carries the stored password hash alongside the user
// identity. Only the auth path sees this; it never leaves a handler.
type Credentials struct {
	User
	PasswordHash string
}
