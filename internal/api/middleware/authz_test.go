package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/auth"
)

func gated(identity *auth.Identity, roles ...string) http.Handler {
	return middleware.Authenticate(resolverFor(identity))(middleware.RequireRole(roles...)(okHandler()))
}

func TestRequireRole_AdminAllowed(t *testing.T) {
	handler := gated(&auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}, auth.RoleAdmin)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_UserForbidden(t *testing.T) {
	handler := gated(&auth.Identity{ID: uuid.New(), Role: auth.RoleUser}, auth.RoleAdmin)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", parseErrorResponse(t, w)["code"])
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	handler := gated(&auth.Identity{ID: uuid.New(), Role: auth.RoleUser}, auth.RoleUser, auth.RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	handler := middleware.RequireRole(auth.RoleAdmin)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}
