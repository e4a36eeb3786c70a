package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ELDEREASE_BACK-END/internal/dto"
	"ELDEREASE_BACK-END/internal/logging"
	"ELDEREASE_BACK-END/internal/middleware"
	"ELDEREASE_BACK-END/internal/models"
	"ELDEREASE_BACK-END/internal/security"
	"ELDEREASE_BACK-END/internal/services"
	"ELDEREASE_BACK-END/internal/utils"
)

// Authenticator is the service behind the auth endpoints.
type Authenticator interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Profile(ctx context.Context, id uuid.UUID) (*models.User, error)
	LoginWithGoogle(ctx context.Context, profile services.GoogleProfile) (*services.LoginResult, error)
}

// Client-facing messages.
const (
	msgInvalidBody        = "Invalid request body"
	msgFieldsRequired     = "All fields are required"
	msgPasswordTooLong    = "Password is too long"
	msgUserExists         = "User already exists"
	msgRegisterFailed     = "Error registering user"
	msgRegistered         = "User registered successfully"
	msgInvalidCredentials = "Invalid email or password"
	msgServerError        = "Server error"
	msgLoginSuccessful    = "Login successful"
	msgUnauthorized       = "Unauthorized"
	msgUserNotFound       = "User not found"
	msgMethodNotAllowed   = "Method not allowed"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth   Authenticator
	logger logging.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(auth Authenticator, logger logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a new account. Every field is required; the email must not already be registered.
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration data"
// @Success 201 {object} dto.RegisterResponse "User registered successfully"
// @Failure 400 {object} dto.MessageResponse "Invalid input or user already exists"
// @Failure 500 {object} dto.MessageResponse "Error registering user"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.auth.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
		Age:      req.Age,
		Mobile:   req.Mobile,
	})
	if err != nil {
		switch {
		case errors.Is(err, security.ErrPasswordTooLong):
			utils.WriteMessage(w, http.StatusBadRequest, msgPasswordTooLong)
		case errors.Is(err, services.ErrValidation):
			utils.WriteMessage(w, http.StatusBadRequest, msgFieldsRequired)
		case errors.Is(err, services.ErrDuplicateUser):
			utils.WriteMessage(w, http.StatusBadRequest, msgUserExists)
		default:
			logging.LogError(r.Context(), h.logger, "registration failed", err)
			utils.WriteMessage(w, http.StatusInternalServerError, msgRegisterFailed)
		}
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.RegisterResponse{
		Message:  msgRegistered,
		UserName: result.Name,
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password and receive a session token
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.LoginResponse "Login successful"
// @Failure 400 {object} dto.MessageResponse "Invalid request body"
// @Failure 401 {object} dto.MessageResponse "Invalid email or password"
// @Failure 500 {object} dto.MessageResponse "Server error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toLoginResponse(result))
}

// GetProfile returns the current user's profile
// @Summary Get user profile
// @Description Get the authenticated user's account details
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse "User profile"
// @Failure 401 {object} dto.MessageResponse "Unauthorized"
// @Failure 404 {object} dto.MessageResponse "User not found"
// @Failure 500 {object} dto.MessageResponse "Server error"
// @Router /api/auth/profile [get]
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.WriteMessage(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		logging.LogError(r.Context(), h.logger, "profile lookup failed", err)
		utils.WriteMessage(w, http.StatusInternalServerError, msgServerError)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrInvalidCredentials) {
		utils.WriteMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	logging.LogError(r.Context(), h.logger, "login failed", err)
	utils.WriteMessage(w, http.StatusInternalServerError, msgServerError)
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Gender:    u.Gender,
		Age:       u.Age,
		Mobile:    u.Mobile,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toLoginResponse(res *services.LoginResult) dto.LoginResponse {
	return dto.LoginResponse{
		Message:   msgLoginSuccessful,
		User:      toUserResponse(&res.User),
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
