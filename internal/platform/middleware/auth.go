package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tagd/internal/platform/authtoken"
)

// TokenValidator validates admin bearer tokens.
type TokenValidator interface {
	Validate(tokenString string) (*authtoken.Claims, error)
}

type contextKeyAdminSubject struct{}

// ContextKeyAdminSubject is exported for tests that inject a subject
// directly.
var ContextKeyAdminSubject = contextKeyAdminSubject{}

// GetAdminSubject retrieves the authenticated admin subject from the
// context.
func GetAdminSubject(ctx context.Context) string {
	subject, ok := ctx.Value(ContextKeyAdminSubject).(string)
	if !ok {
		return ""
	}
	return subject
}

// RequireAdmin guards the privileged endpoints with a bearer token check.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				unauthorized(w)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", GetRequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyAdminSubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"valid admin token required"}`))
}
