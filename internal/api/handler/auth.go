package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/api/response"
	"github.com/daap14/tasktrack/internal/api/validation"
	"github.com/daap14/tasktrack/internal/auth"
)

const tokenTypeBearer = "bearer"

// AuthService is the subset of auth.Service used by AuthHandler.
type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (string, *auth.Identity, error)
	Login(ctx context.Context, username, password string) (string, *auth.Identity, error)
}

// signupRequest is the request body for POST /auth/signup.
type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type signupResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// profileResponse is the public view of an identity. It never carries the
// password hash.
type profileResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toProfileResponse(id *auth.Identity) profileResponse {
	return profileResponse{
		ID:        id.ID.String(),
		Username:  id.Username,
		Email:     id.Email,
		Role:      id.Role,
		CreatedAt: formatTimestamp(id.CreatedAt),
	}
}

// AuthHandler handles signup, token and profile endpoints.
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.TrimSpace(req.Role)

	fieldErrors := validation.ValidateSignupRequest(validation.SignupRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	token, identity, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, auth.ErrConflict) {
			response.Err(w, http.StatusConflict, "CONFLICT", err.Error(), requestID)
			return
		}
		slog.Error("failed to sign up", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user", requestID)
		return
	}

	response.Raw(w, http.StatusCreated, signupResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		Username:    identity.Username,
		Role:        identity.Role,
	})
}

// Token handles POST /auth/token with an OAuth2 password form body.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := r.ParseForm(); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Request body must be a valid form", requestID)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if fieldErrors := validation.ValidateTokenRequest(username, password); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	token, _, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			response.Unauthorized(w, "Incorrect username or password", requestID)
			return
		}
		slog.Error("failed to log in", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", requestID)
		return
	}

	response.Raw(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Not authenticated", middleware.GetRequestID(r.Context()))
		return
	}
	response.Raw(w, http.StatusOK, toProfileResponse(identity))
}
