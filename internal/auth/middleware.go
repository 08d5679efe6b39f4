package auth

import (
	"context"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/petermazzocco/water-quality-api/internal/logger"
)

type contextKeyIdentityType struct{}

var contextKeyIdentity = &contextKeyIdentityType{}

// UserMiddleware rejects requests without a valid bearer token and stores
// the token's identity in the request context.
func UserMiddleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "Missing Authorization Header")
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "Invalid token")
				return
			}

			identity, err := tokens.Identity(strings.TrimSpace(token))
			if err != nil {
				logger.FromContext(r.Context()).WithError(err).Debug("rejected bearer token")
				unauthorized(w, "Invalid token")
				return
			}

			ctx, _ := logger.ContextWithLoggerIdentity(r.Context(), identity)
			ctx = WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext returns the identity stored by UserMiddleware.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(contextKeyIdentity).(string)
	return identity, ok && identity != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
