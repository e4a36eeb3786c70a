// Package store persists user credentials. The Postgres implementation is
// used in production; MemoryStore backs tests and local development.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"ELDEREASE_BACK-END/internal/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation is returned when an insert collides with an
	// existing email.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTimeout is returned when a store call exceeds its query timeout.
	ErrTimeout = errors.New("store timeout")
)

// CredentialStore owns persisted user records.
type CredentialStore interface {
	// FindByEmail performs an exact, case-sensitive match on email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// Insert stores u, assigning ID and CreatedAt when unset.
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	Ping(ctx context.Context) error
}
