// Package middleware holds the HTTP middleware chain: API-key auth, CORS,
// request logging, per-client rate limiting, and metrics.
package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	apiKeyContextKey contextKey = iota
)

// AuthConfig holds configuration for the API-key auth middleware.
type AuthConfig struct {
	// Keys is the accepted API-key allow-list.  Empty disables auth
	// entirely, which config validation only permits outside release mode.
	Keys []string

	// SkipPaths bypass authentication (health probes, metrics).
	SkipPaths []string
}

// AuthMiddleware authenticates dashboard requests with a static API key
// carried in the X-API-Key header or as a bearer token.
type AuthMiddleware struct {
	keys      [][]byte
	skipPaths []string
	logger    logging.Logger
}

// NewAuthMiddleware creates an AuthMiddleware from the configured key list.
func NewAuthMiddleware(cfg AuthConfig, logger logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	keys := make([][]byte, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys = append(keys, []byte(k))
	}
	return &AuthMiddleware{
		keys:      keys,
		skipPaths: cfg.SkipPaths,
		logger:    logger.Named("auth"),
	}
}

// Handler enforces authentication.  Requests without a valid key receive
// 401 Unauthorized.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.keys) == 0 || m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := extractAPIKey(r)
		if key == "" {
			writeUnauthorized(w, "authentication required")
			return
		}
		if !m.validKey(key) {
			m.logger.Warn("rejected API key",
				logging.String("path", r.URL.Path),
				logging.String("key_id", KeyFingerprint(key)))
			writeUnauthorized(w, "invalid API key")
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyContextKey, KeyFingerprint(key))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validKey(key string) bool {
	candidate := []byte(key)
	for _, k := range m.keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			return true
		}
	}
	return false
}

func (m *AuthMiddleware) shouldSkip(path string) bool {
	for _, skip := range m.skipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// extractAPIKey pulls the key from X-API-Key, falling back to a bearer
// token so the dashboard frontend can use a single Authorization header.
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// KeyFingerprint returns a short non-reversible identifier for an API key,
// safe for logs and rate-limit bucketing.
func KeyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// ContextGetKeyFingerprint returns the fingerprint of the authenticated API
// key, or "" for unauthenticated requests.
func ContextGetKeyFingerprint(ctx context.Context) string {
	fp, _ := ctx.Value(apiKeyContextKey).(string)
	return fp
}

// writeUnauthorized writes a 401 JSON response.  Intentionally vague to
// avoid leaking which part of the credential was wrong.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", `Bearer realm="planlens"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"COMMON_003","message":"` + message + `"}}`))
}
