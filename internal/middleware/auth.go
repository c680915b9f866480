// Package middleware provides HTTP middleware for authentication,
// rate limiting, and request tracing.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type userKey struct{}

// WithUser stores the authenticated user name in the context.
func WithUser(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userKey{}, name)
}

// UserFromContext extracts the authenticated user name from the context.
func UserFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userKey{}).(string)
	return name, ok
}

// Authenticate tries a JWT Bearer token first, then the trusted user header.
// Returns 401 if both fail. The header fallback is disabled when userHeader
// is empty.
func Authenticate(jwtSecret []byte, userHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && len(jwtSecret) > 0 {
				tokenStr := strings.TrimPrefix(auth, "Bearer ")
				token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
					return jwtSecret, nil
				}, jwt.WithValidMethods([]string{"HS256"}))

				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if sub, ok := claims["sub"].(string); ok && sub != "" {
							next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), sub)))
							return
						}
					}
				}
			}

			if userHeader != "" {
				if name := r.Header.Get(userHeader); name != "" {
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), name)))
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    http.StatusUnauthorized,
				"message": "unauthorized: provide a valid Bearer token or user header",
			})
		})
	}
}
