package httpx

import (
	"net/http"
	"strings"

	"github.com/TheAliBit/codinto-library/internal/auth"
)

// AuthMiddleware requires a valid access token and stores the caller's id
// and role on the context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := auth.ParseToken(secret, token)
			if err != nil || claims.TokenType != auth.TokenTypeAccess {
				JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
				return
			}

			ctx := ContextWithUser(r.Context(), claims.Sub, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware stores the caller's identity when a valid access
// token is presented but lets anonymous requests through.
func OptionalAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token := strings.TrimPrefix(authHeader, "Bearer ")
				if claims, err := auth.ParseToken(secret, token); err == nil && claims.TokenType == auth.TokenTypeAccess {
					r = r.WithContext(ContextWithUser(r.Context(), claims.Sub, claims.Role))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects callers whose role is not ADMIN. Must run after
// AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFrom(r) != "ADMIN" {
			JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
