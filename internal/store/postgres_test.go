package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ELDEREASE_BACK-END/internal/models"
)

var userColumns = []string{"id", "name", "email", "password_hash", "gender", "age", "mobile", "created_at"}

func newMockStore(t *testing.T, retries uint64) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	s := NewPostgresStore(mock, PostgresOptions{
		QueryTimeout: time.Second,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	})
	return s, mock
}

func TestPostgresStore_FindByEmail(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantMsg   string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(userColumns).
					AddRow(id.String(), "Jane", "jane@x.com", "$2a$10$hash", "Female", "30", "9171234567", created)
				mock.ExpectQuery(findUserByEmailQuery).WithArgs("jane@x.com").WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(findUserByEmailQuery).WithArgs("jane@x.com").
					WillReturnRows(pgxmock.NewRows(userColumns))
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(findUserByEmailQuery).WithArgs("jane@x.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t, 0)
			tt.setupMock(mock)

			got, err := s.FindByEmail(context.Background(), "jane@x.com")

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
				assert.False(t, errors.Is(err, ErrNotFound))
			default:
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, "Jane", got.Name)
				assert.Equal(t, "$2a$10$hash", got.PasswordHash)
				assert.Equal(t, created, got.CreatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresStore_FindByID(t *testing.T) {
	s, mock := newMockStore(t, 0)
	id := uuid.New()

	rows := pgxmock.NewRows(userColumns).
		AddRow(id.String(), "Jane", "jane@x.com", "h", "Female", "30", "9171234567", time.Now())
	mock.ExpectQuery(findUserByIDQuery).WithArgs(id).WillReturnRows(rows)
	mock.ExpectQuery(findUserByIDQuery).WithArgs(id).WillReturnRows(pgxmock.NewRows(userColumns))

	got, err := s.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", got.Email)

	_, err = s.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Insert(t *testing.T) {
	user := &models.User{
		Name: "Jane", Email: "jane@x.com", PasswordHash: "$2a$10$hash",
		Gender: "Female", Age: "30", Mobile: "9171234567",
	}

	tests := []struct {
		name      string
		retries   uint64
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertUserQuery).
					WithArgs(pgxmock.AnyArg(), "Jane", "jane@x.com", "$2a$10$hash", "Female", "30", "9171234567", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "unique violation",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertUserQuery).
					WithArgs(pgxmock.AnyArg(), "Jane", "jane@x.com", "$2a$10$hash", "Female", "30", "9171234567", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			wantErr: ErrConstraintViolation,
		},
		{
			name:    "transient failure is retried",
			retries: 1,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertUserQuery).
					WithArgs(pgxmock.AnyArg(), "Jane", "jane@x.com", "$2a$10$hash", "Female", "30", "9171234567", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})
				mock.ExpectExec(insertUserQuery).
					WithArgs(pgxmock.AnyArg(), "Jane", "jane@x.com", "$2a$10$hash", "Female", "30", "9171234567", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name:    "unique violation is not retried",
			retries: 3,
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(insertUserQuery).
					WithArgs(pgxmock.AnyArg(), "Jane", "jane@x.com", "$2a$10$hash", "Female", "30", "9171234567", pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: ErrConstraintViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t, tt.retries)
			tt.setupMock(mock)

			got, err := s.Insert(context.Background(), user)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, got.ID)
				assert.False(t, got.CreatedAt.IsZero())
				assert.Equal(t, uuid.Nil, user.ID, "input record must not be mutated")
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockStore(t, 0)

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	assert.NoError(t, s.Ping(context.Background()))
	assert.Error(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&pgconn.PgError{Code: pgerrcode.ConnectionFailure}))
	assert.True(t, isTransient(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.False(t, isTransient(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, isTransient(errors.New("boom")))
}

func TestWrapStoreErr_Timeout(t *testing.T) {
	err := wrapStoreErr(context.DeadlineExceeded, "USER_INSERT_FAILED", "insert user")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = wrapStoreErr(errors.New("boom"), "USER_INSERT_FAILED", "insert user")
	assert.False(t, errors.Is(err, ErrTimeout))
}
