// Package services implements registration, login and profile lookup on
// top of the credential store, the password hasher and the token issuer.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"ELDEREASE_BACK-END/internal/logging"
	"ELDEREASE_BACK-END/internal/metrics"
	"ELDEREASE_BACK-END/internal/models"
	"ELDEREASE_BACK-END/internal/security"
	"ELDEREASE_BACK-END/internal/store"
)

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// RegisterInput is the registration form as submitted by the client.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Gender   string
	Age      string
	Mobile   string
}

func (in RegisterInput) complete() bool {
	return in.Name != "" && in.Email != "" && in.Password != "" &&
		in.Gender != "" && in.Age != "" && in.Mobile != ""
}

// RegisterResult identifies the newly created account.
type RegisterResult struct {
	ID   uuid.UUID
	Name string
}

// LoginResult carries the authenticated user (without hash) and a session token.
type LoginResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

// GoogleProfile is the subset of Google userinfo used for sign-in.
type GoogleProfile struct {
	Email    string
	Name     string
	Verified bool
}

// AuthService provides the authentication operations.
type AuthService struct {
	store   store.CredentialStore
	hasher  security.PasswordHasher
	tokens  TokenIssuer
	logger  logging.Logger
	metrics *metrics.Metrics

	dummyMu   sync.Mutex
	dummyHash string
}

// Option configures optional AuthService collaborators.
type Option func(*AuthService)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l logging.Logger) Option {
	return func(s *AuthService) { s.logger = l }
}

// WithMetrics sets the metrics sink. Nil records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// NewAuthService creates an AuthService.
func NewAuthService(st store.CredentialStore, hasher security.PasswordHasher, tokens TokenIssuer, opts ...Option) (*AuthService, error) {
	if st == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("credential store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token issuer is required")
	}

	s := &AuthService{store: st, hasher: hasher, tokens: tokens, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a new account. The store's unique constraint is the
// final word on duplicates; the lookup only short-circuits the common case.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Email == "" {
		s.metrics.RecordAttempt(metrics.OpRegister, metrics.OutcomeValidation)
		return nil, oops.Code("REGISTER_VALIDATION").Wrap(ErrValidation)
	}

	// A registered email wins over any other problem with the form.
	_, err := s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		s.metrics.RecordAttempt(metrics.OpRegister, metrics.OutcomeDuplicate)
		return nil, oops.Code("USER_ALREADY_EXISTS").With("email", in.Email).Wrap(ErrDuplicateUser)
	case !errors.Is(err, store.ErrNotFound):
		return nil, s.failure(metrics.OpRegister, "lookup email", err)
	}

	if !in.complete() {
		s.metrics.RecordAttempt(metrics.OpRegister, metrics.OutcomeValidation)
		return nil, oops.Code("REGISTER_VALIDATION").Wrap(ErrValidation)
	}

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			s.metrics.RecordAttempt(metrics.OpRegister, metrics.OutcomeValidation)
			return nil, oops.Code("REGISTER_VALIDATION").Wrap(errors.Join(ErrValidation, err))
		}
		return nil, s.failure(metrics.OpRegister, "hash password", err)
	}

	created, err := s.store.Insert(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Gender:       in.Gender,
		Age:          in.Age,
		Mobile:       in.Mobile,
	})
	if err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			s.metrics.RecordAttempt(metrics.OpRegister, metrics.OutcomeDuplicate)
			return nil, oops.Code("USER_ALREADY_EXISTS").With("email", in.Email).Wrap(ErrDuplicateUser)
		}
		return nil, s.failure(metrics.OpRegister, "insert user", err)
	}

	s.metrics.RecordAttempt(metrics.OpRegister, metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user registered", "user_id", created.ID.String())

	return &RegisterResult{ID: created.ID, Name: created.Name}, nil
}

// Login verifies credentials and issues a session token. An unknown email
// and a wrong password are indistinguishable to the caller, in result and
// in the work performed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		s.metrics.RecordAttempt(metrics.OpLogin, metrics.OutcomeInvalidCredentials)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, s.failure(metrics.OpLogin, "lookup email", err)
	}

	target := s.dummy(ctx)
	if user != nil && user.PasswordHash != "" {
		target = user.PasswordHash
	}

	ok, err := s.verify(ctx, password, target)
	if err != nil {
		return nil, s.failure(metrics.OpLogin, "verify password", err)
	}
	if user == nil || user.PasswordHash == "" || !ok {
		s.metrics.RecordAttempt(metrics.OpLogin, metrics.OutcomeInvalidCredentials)
		s.logger.Debug(ctx, "login rejected", "user_known", user != nil)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	return s.issue(ctx, metrics.OpLogin, user)
}

// Profile returns the account identified by id, without its hash.
func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(ErrUserNotFound)
		}
		return nil, s.classify("find user by id", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// LoginWithGoogle signs in a Google-verified email, creating the account on
// first use. Accounts created here have no password and cannot use Login.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (*LoginResult, error) {
	if profile.Email == "" || !profile.Verified {
		s.metrics.RecordAttempt(metrics.OpGoogleLogin, metrics.OutcomeInvalidCredentials)
		return nil, oops.Code("GOOGLE_EMAIL_UNVERIFIED").With("email", profile.Email).Wrap(ErrInvalidCredentials)
	}

	user, err := s.store.FindByEmail(ctx, profile.Email)
	if errors.Is(err, store.ErrNotFound) {
		name := profile.Name
		if name == "" {
			name = profile.Email
		}
		user, err = s.store.Insert(ctx, &models.User{Name: name, Email: profile.Email})
		if errors.Is(err, store.ErrConstraintViolation) {
			// Lost a race with a concurrent first sign-in.
			user, err = s.store.FindByEmail(ctx, profile.Email)
		} else if err == nil {
			s.logger.Info(ctx, "user registered via google", "user_id", user.ID.String())
		}
	}
	if err != nil {
		return nil, s.failure(metrics.OpGoogleLogin, "find or create google user", err)
	}

	return s.issue(ctx, metrics.OpGoogleLogin, user)
}

func (s *AuthService) issue(ctx context.Context, op string, user *models.User) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.RecordAttempt(op, metrics.OutcomeError)
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}

	s.metrics.RecordAttempt(op, metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user logged in", "user_id", user.ID.String(), "method", op)

	return &LoginResult{User: user.Sanitized(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHash(metrics.OpHash, time.Since(start)) }()
	return s.hasher.Hash(ctx, password)
}

func (s *AuthService) verify(ctx context.Context, password, hash string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHash(metrics.OpVerify, time.Since(start)) }()
	return s.hasher.Verify(ctx, password, hash)
}

// dummy returns a hash produced by the configured hasher, so verifying
// against it costs the same as verifying a real one. Only a successful
// hash is kept; a failed attempt is retried on the next call.
func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), uuid.NewString())
		if err != nil {
			s.logger.Warn(ctx, "dummy hash generation failed", "error", err)
			return ""
		}
		s.dummyHash = h
	}
	return s.dummyHash
}

// failure records an error outcome for op and classifies err.
func (s *AuthService) failure(op, operation string, err error) error {
	classified := s.classify(operation, err)
	if errors.Is(classified, ErrTimeout) {
		s.metrics.RecordAttempt(op, metrics.OutcomeTimeout)
	} else {
		s.metrics.RecordAttempt(op, metrics.OutcomeError)
	}
	return classified
}

func (s *AuthService) classify(operation string, err error) error {
	switch {
	case errors.Is(err, store.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return oops.Code("AUTH_TIMEOUT").With("operation", operation).Wrap(errors.Join(ErrTimeout, err))
	case errors.Is(err, context.Canceled):
		return oops.Code("AUTH_CANCELLED").With("operation", operation).Wrap(err)
	default:
		return oops.Code("AUTH_STORAGE_FAILED").With("operation", operation).Wrap(errors.Join(ErrStorage, err))
	}
}
