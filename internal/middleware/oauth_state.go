package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"ELDEREASE_BACK-END/internal/config"
)

const stateSubject = "oauth_state"

// ErrInvalidState is returned when an OAuth state value fails verification.
var ErrInvalidState = errors.New("invalid oauth state")

// StateClaims represents the JWT claims carried in the OAuth state parameter
type StateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// StateSigner issues short-lived signed values for the OAuth state parameter.
type StateSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a StateSigner sharing the session signing secret.
func NewStateSigner(cfg config.JWTConfig) *StateSigner {
	ttl := cfg.StateTokenTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateSigner{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}
}

// IssueState generates a signed state value
func (s *StateSigner) IssueState() (string, error) {
	now := s.now()
	claims := &StateClaims{
		Nonce: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   stateSubject,
		},
	}

	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("STATE_SIGN_FAILED").Wrap(err)
	}
	return state, nil
}

// VerifyState validates a state value returned on the OAuth callback
func (s *StateSigner) VerifyState(state string) error {
	claims := &StateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return errors.Join(ErrInvalidState, err)
	}

	// Session tokens are signed with the same secret; only state tokens pass.
	if !token.Valid || claims.Subject != stateSubject || claims.Nonce == "" {
		return ErrInvalidState
	}
	return nil
}
