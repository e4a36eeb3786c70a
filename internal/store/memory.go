package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"ELDEREASE_BACK-END/internal/models"
)

// MemoryStore is an in-process CredentialStore. Email uniqueness is
// enforced under the write lock, so concurrent inserts behave like the
// Postgres unique constraint.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(ErrNotFound)
	}
	u := m.byID[id]
	return &u, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	return &u, nil
}

func (m *MemoryStore) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := *u
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[rec.Email]; exists {
		return nil, oops.Code("USER_ALREADY_EXISTS").With("email", rec.Email).Wrap(ErrConstraintViolation)
	}
	if _, exists := m.byID[rec.ID]; exists {
		return nil, oops.Code("USER_ALREADY_EXISTS").With("id", rec.ID.String()).Wrap(ErrConstraintViolation)
	}

	m.byID[rec.ID] = rec
	m.byEmail[rec.Email] = rec.ID
	return &rec, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored users.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
