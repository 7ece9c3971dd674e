package auth

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

var userIDKey contextKey

// Middleware rejects requests without a valid bearer token and stores the
// resolved user id in the request context. Rejection happens before any
// handler runs, so a failed gate can never produce partial side effects.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			reject(w, r)
			return
		}
		userID, err := v.Verify(token)
		if err != nil {
			reject(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a context carrying the resolved user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID extracts the resolved user id placed by the middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func reject(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Request rejected by auth gate",
		"method", r.Method,
		"path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
