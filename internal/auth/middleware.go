package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

type ctxKey string

const claimsKey ctxKey = "staffClaims"

// Authenticate requires a valid bearer token and stores its claims in the context.
func (s *Signer) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			utils.WriteError(w, r, apperr.Auth("missing bearer token"))
			return
		}
		claims, err := s.ParseAndValidate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			utils.WriteError(w, r, apperr.Auth("invalid or expired token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		c, ok := ClaimsFrom(r.Context())
		if !ok || !c.IsAdmin {
			utils.WriteError(w, r, apperr.Auth("admin credentials required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// Actor is the audit name of the caller, empty for anonymous requests.
func Actor(ctx context.Context) string {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.Email
	}
	return ""
}
