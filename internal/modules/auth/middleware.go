package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// UserIDFromContext returns the authenticated user's id placed by Middleware
func UserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// Middleware rejects requests without a valid bearer token and places the
// token claims on the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			http.Error(w, "Missing authorization token", http.StatusUnauthorized)
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	// SSE and websocket clients cannot set headers
	return r.URL.Query().Get("token")
}
