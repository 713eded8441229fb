package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func authStack(cfg AuthConfig) http.Handler {
	m := NewAuthMiddleware(cfg, nil)
	return m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Key-ID", ContextGetKeyFingerprint(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthAcceptsHeaderKey(t *testing.T) {
	h := authStack(AuthConfig{Keys: []string{"pk_1"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comparisons/x", nil)
	req.Header.Set("X-API-Key", "pk_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, KeyFingerprint("pk_1"), rec.Header().Get("X-Key-ID"))
}

func TestAuthAcceptsBearerKey(t *testing.T) {
	h := authStack(AuthConfig{Keys: []string{"pk_1"}})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer pk_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsUnknownKey(t *testing.T) {
	h := authStack(AuthConfig{Keys: []string{"pk_1"}})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-API-Key", "pk_wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMMON_003")
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	h := authStack(AuthConfig{Keys: []string{"pk_1"}})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSkipPaths(t *testing.T) {
	h := authStack(AuthConfig{Keys: []string{"pk_1"}, SkipPaths: []string{"/healthz"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthDisabledWithoutKeys(t *testing.T) {
	h := authStack(AuthConfig{})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
