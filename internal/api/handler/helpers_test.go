package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/auth"
)

// stubResolver authenticates every request as identity.
type stubResolver struct {
	identity *auth.Identity
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*auth.Identity, error) {
	return s.identity, nil
}

// asIdentity runs h behind Authenticate so handlers see identity in context.
func asIdentity(identity *auth.Identity, h http.HandlerFunc) http.Handler {
	return middleware.Authenticate(&stubResolver{identity: identity})(h)
}

func withBearer(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer token")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	apiErr, ok := decodeBody(t, w)["error"].(map[string]interface{})
	require.True(t, ok, "expected an error envelope, got %s", w.Body.String())
	return apiErr["code"].(string)
}
