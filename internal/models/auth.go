package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account in the users table
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Hidden from JSON responses
	Gender       string    `json:"gender" db:"gender"`
	Age          string    `json:"age" db:"age"`
	Mobile       string    `json:"mobile" db:"mobile"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Sanitized returns a copy of the user without the password hash.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
