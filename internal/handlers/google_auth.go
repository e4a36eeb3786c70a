package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/oops"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"ELDEREASE_BACK-END/internal/config"
	"ELDEREASE_BACK-END/internal/dto"
	"ELDEREASE_BACK-END/internal/logging"
	"ELDEREASE_BACK-END/internal/services"
	"ELDEREASE_BACK-END/internal/utils"
)

// ErrCodeExchange is returned when Google rejects the authorization code.
var ErrCodeExchange = errors.New("authorization code exchange failed")

// GoogleProvider runs the Google side of the OAuth flow.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	// Exchange trades the authorization code for the user's Google profile.
	Exchange(ctx context.Context, code string) (*services.GoogleProfile, error)
}

// StateStore issues and checks the OAuth state parameter.
type StateStore interface {
	IssueState() (string, error)
	VerifyState(state string) error
}

// googleProvider implements GoogleProvider against Google's endpoints.
type googleProvider struct {
	oauth2Config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider from the OAuth configuration.
func NewGoogleProvider(cfg config.GoogleOAuthConfig) GoogleProvider {
	return &googleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (*services.GoogleProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, oops.Code("GOOGLE_EXCHANGE_FAILED").Wrap(errors.Join(ErrCodeExchange, err))
	}

	service, err := googleOAuth2.NewService(ctx, option.WithTokenSource(p.oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return nil, oops.Code("GOOGLE_USERINFO_FAILED").Wrap(err)
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, oops.Code("GOOGLE_USERINFO_FAILED").Wrap(err)
	}

	verified := false
	if userInfo.VerifiedEmail != nil {
		verified = *userInfo.VerifiedEmail
	}

	return &services.GoogleProfile{
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Verified: verified,
	}, nil
}

// GoogleAuthHandler handles Google OAuth authentication
type GoogleAuthHandler struct {
	auth     Authenticator
	provider GoogleProvider
	states   StateStore
	logger   logging.Logger
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler instance
func NewGoogleAuthHandler(auth Authenticator, provider GoogleProvider, states StateStore, logger logging.Logger) *GoogleAuthHandler {
	return &GoogleAuthHandler{auth: auth, provider: provider, states: states, logger: logger}
}

// GoogleLogin initiates Google OAuth login
// @Summary Google OAuth login
// @Description Returns the Google consent URL and the signed state to send back on the callback
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse "Google OAuth URL"
// @Failure 500 {object} dto.MessageResponse "Server error"
// @Router /api/auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	state, err := h.states.IssueState()
	if err != nil {
		logging.LogError(r.Context(), h.logger, "issue oauth state failed", err)
		utils.WriteMessage(w, http.StatusInternalServerError, msgServerError)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.GoogleLoginResponse{
		AuthURL: h.provider.AuthCodeURL(state),
		State:   state,
	})
}

// GoogleCallback handles Google OAuth callback
// @Summary Google OAuth callback
// @Description Exchange the authorization code, sign in or create the account and return a session token
// @Tags authentication
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State returned by /api/auth/google/login"
// @Success 200 {object} dto.LoginResponse "Login successful"
// @Failure 400 {object} dto.MessageResponse "Missing authorization code or invalid state"
// @Failure 401 {object} dto.MessageResponse "Invalid authorization code or unverified email"
// @Failure 500 {object} dto.MessageResponse "Server error"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Missing authorization code")
		return
	}
	if err := h.states.VerifyState(r.URL.Query().Get("state")); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid state")
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrCodeExchange) {
			utils.WriteMessage(w, http.StatusUnauthorized, "Invalid authorization code")
			return
		}
		logging.LogError(r.Context(), h.logger, "google userinfo failed", err)
		utils.WriteMessage(w, http.StatusInternalServerError, msgServerError)
		return
	}

	result, err := h.auth.LoginWithGoogle(r.Context(), *profile)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.WriteMessage(w, http.StatusUnauthorized, "Google email is not verified")
			return
		}
		logging.LogError(r.Context(), h.logger, "google login failed", err)
		utils.WriteMessage(w, http.StatusInternalServerError, msgServerError)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toLoginResponse(result))
}
