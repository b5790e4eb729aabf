package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-notification-dispatch/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// Verifier resolves a session token to the caller's identity. Rejected tokens
// return a domain.ErrUnauthorized-wrapped error.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth returns middleware that verifies the session token and injects the
// identity into context. The token is read from a Bearer header, falling back
// to the session_token query parameter.
func Auth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing session token")
				return
			}
			id, err := v.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeJSONError(w, http.StatusUnauthorized, "invalid or expired session token")
					return
				}
				slog.ErrorContext(r.Context(), "session verification failed", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "could not verify session")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("session_token"))
}

// IdentityFromContext returns the identity stored by Auth.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*domain.Identity)
	return id, ok
}

// WithIdentity stores id in ctx the way Auth does.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
