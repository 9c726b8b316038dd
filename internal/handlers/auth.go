package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vidfriends/appcore/internal/auth"
	"github.com/vidfriends/appcore/internal/logging"
	"github.com/vidfriends/appcore/internal/models"
	"github.com/vidfriends/appcore/internal/validation"
)

// SignInPath is where clients are sent after logging out.
const SignInPath = "/sign-in"

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Sessions SessionService
	State    *auth.State
	Limiter  RateLimiter

	validate *validator.Validate
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(sessions SessionService, state *auth.State, limiter RateLimiter) AuthHandler {
	return AuthHandler{Sessions: sessions, State: state, Limiter: limiter, validate: validation.New()}
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "signup") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if err := h.validator().Struct(req); err != nil {
		respondError(ctx, w, err, "invalid signup request")
		return
	}

	user, err := h.Sessions.CreateUser(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		respondError(ctx, w, err, "failed to create account")
		return
	}

	h.remember(user)
	respondJSON(ctx, w, http.StatusCreated, userResponse{User: user})
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := h.validator().Struct(req); err != nil {
		respondError(ctx, w, err, "invalid login request")
		return
	}

	session, err := h.Sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(ctx, w, err, "invalid credentials")
		return
	}

	user, err := h.Sessions.LookupCurrentUser(ctx)
	if err != nil {
		respondError(ctx, w, err, "failed to load profile")
		return
	}

	h.remember(user)
	respondJSON(ctx, w, http.StatusOK, userResponse{User: user, ExpiresAt: &session.ExpiresAt})
}

// Logout handles POST /api/v1/auth/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if err := h.Sessions.Logout(ctx, h.State); err != nil {
		respondError(ctx, w, err, "failed to log out")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out", "redirect": SignInPath})
}

// Me handles GET /api/v1/auth/me requests.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user := h.Sessions.CurrentUser(ctx)
	h.remember(user)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	respondJSON(ctx, w, http.StatusOK, userResponse{User: user})
}

func (h AuthHandler) remember(user *models.User) {
	if h.State != nil {
		h.State.SetUser(user)
	}
}

func (h AuthHandler) validator() *validator.Validate {
	if h.validate != nil {
		return h.validate
	}
	return validation.New()
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	User      *models.User `json:"user"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}
