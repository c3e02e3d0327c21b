package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/daap14/tasktrack/internal/api/handler"
	"github.com/daap14/tasktrack/internal/auth"
)

type mockAuthService struct {
	signupFn func(ctx context.Context, in auth.SignupInput) (string, *auth.Identity, error)
	loginFn  func(ctx context.Context, username, password string) (string, *auth.Identity, error)
}

func (m *mockAuthService) Signup(ctx context.Context, in auth.SignupInput) (string, *auth.Identity, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, in)
	}
	role := in.Role
	if role == "" {
		role = auth.RoleUser
	}
	return "signed.token.value", &auth.Identity{ID: uuid.New(), Username: in.Username, Email: in.Email, Role: role}, nil
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (string, *auth.Identity, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return "", nil, auth.ErrUnauthorized
}

func signupRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func tokenRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSignup_Created(t *testing.T) {
	var got auth.SignupInput
	svc := &mockAuthService{signupFn: func(_ context.Context, in auth.SignupInput) (string, *auth.Identity, error) {
		got = in
		return "tok", &auth.Identity{ID: uuid.New(), Username: in.Username, Role: auth.RoleUser}, nil
	}}
	h := handler.NewAuthHandler(svc)
	w := httptest.NewRecorder()

	h.Signup(w, signupRequest(`{"username":" alice ","email":"a@x.com","password":"password1"}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "alice", got.Username, "username is trimmed")
	body := decodeBody(t, w)
	assert.Equal(t, "tok", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "user", body["role"])
	assert.NotContains(t, body, "meta", "token responses are bare JSON")
}

func TestSignup_Conflict(t *testing.T) {
	svc := &mockAuthService{signupFn: func(context.Context, auth.SignupInput) (string, *auth.Identity, error) {
		return "", nil, fmt.Errorf("%w: username %q is already registered", auth.ErrConflict, "alice")
	}}
	h := handler.NewAuthHandler(svc)
	w := httptest.NewRecorder()

	h.Signup(w, signupRequest(`{"username":"alice","email":"b@y.com","password":"password2"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestSignup_ValidationError(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{})
	w := httptest.NewRecorder()

	h.Signup(w, signupRequest(`{"username":"al","email":"nope","password":""}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	details := decodeBody(t, w)["error"].(map[string]interface{})["details"].([]interface{})
	assert.Len(t, details, 3)
}

func TestSignup_InvalidJSON(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{})
	w := httptest.NewRecorder()

	h.Signup(w, signupRequest(`{not json`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, w))
}

func TestSignup_InternalError(t *testing.T) {
	svc := &mockAuthService{signupFn: func(context.Context, auth.SignupInput) (string, *auth.Identity, error) {
		return "", nil, errors.New("dynamodb unavailable")
	}}
	h := handler.NewAuthHandler(svc)
	w := httptest.NewRecorder()

	h.Signup(w, signupRequest(`{"username":"alice","email":"a@x.com","password":"password1"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dynamodb", "internal errors are not leaked")
}

func TestToken_OK(t *testing.T) {
	svc := &mockAuthService{loginFn: func(_ context.Context, username, password string) (string, *auth.Identity, error) {
		if username == "alice" && password == "pw1" {
			return "tok", &auth.Identity{Username: username}, nil
		}
		return "", nil, auth.ErrUnauthorized
	}}
	h := handler.NewAuthHandler(svc)
	w := httptest.NewRecorder()

	h.Token(w, tokenRequest(url.Values{"username": {"alice"}, "password": {"pw1"}}))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "tok", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Len(t, body, 2)
}

func TestToken_BadCredentials(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{})

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"bob"}, "password": {"anything"}},
	} {
		w := httptest.NewRecorder()
		h.Token(w, tokenRequest(form))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Incorrect username or password", decodeBody(t, w)["error"].(map[string]interface{})["message"])
	}
}

func TestToken_MissingFields(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{})
	w := httptest.NewRecorder()

	h.Token(w, tokenRequest(url.Values{"username": {"alice"}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestProfile_OmitsPasswordHash(t *testing.T) {
	identity := &auth.Identity{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "$2a$12$secrethashvalue",
		Role:         auth.RoleUser,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	h := handler.NewAuthHandler(&mockAuthService{})
	req := withBearer(httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	w := httptest.NewRecorder()

	asIdentity(identity, h.Profile).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, identity.ID.String(), body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, "2026-01-01T00:00:00Z", body["created_at"])
	assert.NotContains(t, w.Body.String(), "secrethashvalue")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestProfile_CreatedAtPrecision(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{})
	tests := []struct {
		name      string
		createdAt time.Time
		want      interface{}
	}{
		{"sub-second kept", time.Date(2026, 1, 1, 0, 0, 0, 250000000, time.UTC), "2026-01-01T00:00:00.25Z"},
		{"zero omitted", time.Time{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := &auth.Identity{ID: uuid.New(), Username: "alice", Role: auth.RoleUser, CreatedAt: tt.createdAt}
			w := httptest.NewRecorder()

			asIdentity(identity, h.Profile).ServeHTTP(w, withBearer(httptest.NewRequest(http.MethodGet, "/auth/profile", nil)))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, decodeBody(t, w)["created_at"])
		})
	}
}

func TestProfile_Unauthenticated(t *testing.T) {
	h := handler.NewAuthHandler(&mockAuthService{})
	w := httptest.NewRecorder()

	h.Profile(w, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
