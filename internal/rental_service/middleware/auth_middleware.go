package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// AuthenticatedOperatorContextKey carries the Operator through the
	// request context after authentication.
	AuthenticatedOperatorContextKey = ContextKey("authenticatedOperator")
)

// Operator identifies the authenticated caller of the ops API.
type Operator struct {
	Subject string
	IsAdmin bool
}

// OperatorFromContext extracts the authenticated operator, if any.
func OperatorFromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(AuthenticatedOperatorContextKey).(Operator)
	return op, ok
}

// AuthMiddleware authenticates ops API requests with an HMAC-signed bearer
// token. The token must carry an "admin": true claim; the ops surface has no
// non-administrative callers.
func AuthMiddleware(secret []byte, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			isAdmin, _ := claims["admin"].(bool)
			if !isAdmin {
				logger.WarnContext(r.Context(), "Token valid but not administrative")
				http.Error(w, "Administrative token required", http.StatusForbidden)
				return
			}
			subject, _ := claims["sub"].(string)

			ctx := context.WithValue(r.Context(), AuthenticatedOperatorContextKey, Operator{
				Subject: subject,
				IsAdmin: true,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
