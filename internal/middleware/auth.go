package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// CredentialValidator checks HTTP Basic credentials.
type CredentialValidator interface {
	Validate(username, password string) error
}

// Admin marks the request as coming from the administrator when it carries
// the API key (X-API-Key or Bearer) or valid Basic credentials. Requests
// without them pass through as anonymous; use RequireAdmin to reject them.
func Admin(apiKey string, creds CredentialValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAdminRequest(r, apiKey, creds) {
				r = r.WithContext(WithAdmin(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isAdminRequest(r *http.Request, apiKey string, creds CredentialValidator) bool {
	if apiKey != "" {
		if key := extractAPIKey(r); key != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return true
		}
	}
	if creds != nil {
		if user, pass, ok := r.BasicAuth(); ok && creds.Validate(user, pass) == nil {
			return true
		}
	}
	return false
}

// RequireAdmin rejects requests Admin did not mark.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminKey, true)
}

func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(adminKey).(bool)
	return ok
}

func extractAPIKey(r *http.Request) string {
	if s := r.Header.Get("X-API-Key"); s != "" {
		return s
	}
	const prefix = "Bearer "
	if s := r.Header.Get("Authorization"); strings.HasPrefix(s, prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Basic realm="miniblog"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       "UNAUTHORIZED",
			"message":    "administrator credentials required",
			"request_id": GetRequestID(r.Context()),
		},
	})
}
