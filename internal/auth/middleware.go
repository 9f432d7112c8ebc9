package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tasknest/api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey ContextKey = "user_id"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenVerifier
}

func NewMiddleware(tokenService TokenVerifier) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth validates the bearer token and stores the authenticated user
// id in the request context. The Authorization header is the only credential
// source; identity is never taken from the request body.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondUnauthorized(w, "missing authentication token", httputil.CodeMissingToken)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondUnauthorized(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader)
			return
		}

		userID, err := m.tokenService.VerifyToken(parts[1])
		if err != nil {
			httputil.RespondUnauthorized(w, "invalid or expired token", httputil.CodeInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the authenticated user id from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}
