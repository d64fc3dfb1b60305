package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/emberforum/ember-server/internal/domain"
	domainerrors "github.com/emberforum/ember-server/internal/errors"
	"github.com/emberforum/ember-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userKey is the context key for the authenticated user.
const userKey ctxKey = "user"

// GetUser returns the authenticated user from context.
// Returns 401 error if the request carried no valid token.
func GetUser(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(userKey).(*domain.User)
	if !ok || user == nil {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) (string, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// OptionalUserID returns the authenticated user ID, or "" for anonymous
// requests. Used by read endpoints with viewer-dependent visibility.
func OptionalUserID(ctx context.Context) string {
	if user, ok := ctx.Value(userKey).(*domain.User); ok && user != nil {
		return user.ID
	}
	return ""
}

// viewerIdentity returns the viewer's ID and admin flag for read endpoints
// with viewer-dependent visibility. Anonymous viewers get ("", false).
func viewerIdentity(ctx context.Context) (string, bool) {
	if user, ok := ctx.Value(userKey).(*domain.User); ok && user != nil {
		return user.ID, user.IsAdmin()
	}
	return "", false
}

// setUser stores the authenticated user in context.
func setUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the user in context. If no token is present or invalid, continues without a
// user; handlers use GetUser to check authentication.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			token := authHeader[7:]
			user, _, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				// Invalid token - continue without user (handler will reject if auth required)
				next.ServeHTTP(w, r)
				return
			}

			ctx := setUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin validates the user is authenticated and has the admin role.
// Returns the user if successful, error otherwise.
func (s *Server) RequireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domainerrors.Forbidden("Admin access required")
	}
	return user, nil
}
