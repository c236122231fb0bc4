package models

import "time"

// User is a registered principal. Password hashing and session handling are
// an upstream concern; this service only needs identity and role.
type User struct {
	ID        int       `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns the display name used in notification bodies.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
