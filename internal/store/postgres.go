package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"ELDEREASE_BACK-END/internal/models"
)

// pgxIface is the subset of *pgxpool.Pool used by PostgresStore.
// pgxmock.PgxPoolIface satisfies it as well.
type pgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	selectUserColumns = `SELECT id, name, email, password_hash, gender, age, mobile, created_at FROM users`

	findUserByEmailQuery = selectUserColumns + ` WHERE email = $1`
	findUserByIDQuery    = selectUserColumns + ` WHERE id = $1`

	insertUserQuery = `INSERT INTO users (id, name, email, password_hash, gender, age, mobile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// PostgresOptions tunes timeouts and retries for PostgresStore.
type PostgresOptions struct {
	QueryTimeout time.Duration
	MaxRetries   uint64
	RetryBackoff time.Duration
}

// PostgresStore implements CredentialStore on top of a pgx pool.
type PostgresStore struct {
	db   pgxIface
	opts PostgresOptions
}

// NewPostgresStore creates a PostgresStore using the injected pool.
func NewPostgresStore(db pgxIface, opts PostgresOptions) *PostgresStore {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}
	return &PostgresStore{db: db, opts: opts}
}

// FindByEmail looks up a user by exact email match.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.do(ctx, func(ctx context.Context) error {
		u, err := scanUser(s.db.QueryRow(ctx, findUserByEmailQuery, email))
		user = u
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, wrapStoreErr(err, "USER_FIND_BY_EMAIL_FAILED", "find user by email")
	}
	return user, nil
}

// FindByID looks up a user by primary key.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user *models.User
	err := s.do(ctx, func(ctx context.Context) error {
		u, err := scanUser(s.db.QueryRow(ctx, findUserByIDQuery, id))
		user = u
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, wrapStoreErr(err, "USER_FIND_BY_ID_FAILED", "find user by id")
	}
	return user, nil
}

// Insert stores a new user. A duplicate email surfaces as ErrConstraintViolation.
func (s *PostgresStore) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	rec := *u
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, insertUserQuery,
			rec.ID, rec.Name, rec.Email, rec.PasswordHash,
			rec.Gender, rec.Age, rec.Mobile, rec.CreatedAt)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_ALREADY_EXISTS").
				With("email", rec.Email).
				With("constraint", pgErr.ConstraintName).
				Wrap(ErrConstraintViolation)
		}
		return nil, wrapStoreErr(err, "USER_INSERT_FAILED", "insert user")
	}

	return &rec, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return wrapStoreErr(err, "DB_PING_FAILED", "ping")
	}
	return nil
}

// do runs fn under the query timeout, retrying transient failures.
func (s *PostgresStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.opts.MaxRetries, retry.NewExponential(s.opts.RetryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()

		err := fn(qctx)
		if err != nil && isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u  models.User
		id string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash,
		&u.Gender, &u.Age, &u.Mobile, &u.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	u.ID = parsed
	return &u, nil
}

// isTransient reports whether err is worth retrying: nothing reached the
// server, or the server dropped the connection / aborted on contention.
func isTransient(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}
	return false
}

func wrapStoreErr(err error, code, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return oops.Code("DB_TIMEOUT").With("operation", operation).Wrap(errors.Join(ErrTimeout, err))
	}
	return oops.Code(code).With("operation", operation).Wrap(err)
}
