// Package security hashes and verifies passwords with bcrypt.
package security

import (
	"context"
	"errors"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinCost is the lowest bcrypt cost NewBcryptHasher accepts.
const MinCost = 10

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordTooLong is returned for passwords over bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches hash. A mismatch or a
	// malformed hash yields (false, nil); errors are reserved for
	// cancellation while waiting for a hashing slot.
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher. At most maxConcurrent bcrypt
// computations run at once; callers wait for a slot or their context.
type BcryptHasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewBcryptHasher creates a hasher. cost below MinCost is raised to MinCost;
// maxConcurrent < 1 defaults to GOMAXPROCS.
func NewBcryptHasher(cost int, maxConcurrent int64) *BcryptHasher {
	if cost < MinCost {
		cost = MinCost
	}
	if maxConcurrent < 1 {
		maxConcurrent = int64(runtime.GOMAXPROCS(0))
	}
	return &BcryptHasher{cost: cost, slots: semaphore.NewWeighted(maxConcurrent)}
}

// Cost returns the bcrypt work factor in use.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", oops.Code("HASH_CANCELLED").Wrap(err)
	}
	defer h.slots.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", oops.Code("HASH_FAILED").Wrap(err)
	}
	return string(hashed), nil
}

// Verify checks if the password matches the hash.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, oops.Code("HASH_CANCELLED").Wrap(err)
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}
