package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trailpeak/api/internal/model"
	"github.com/trailpeak/api/internal/service"
)

// Authenticator resolves a raw token into a live user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// ErrorFunc writes a normalized error response. Injected so every
// middleware failure flows through the same writer the handlers use.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// sessionCookie is the cookie that carries the token for browser
// clients
const sessionCookie = "jwt"

// extractToken prefers the Authorization header, falling back to the
// session cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Protect returns a middleware that requires a logged-in user
func Protect(auth Authenticator, writeErr ErrorFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeErr(w, r, service.ErrNotLoggedIn)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestrictTo returns a middleware that limits a route to the given
// roles. Must run after Protect.
func RestrictTo(writeErr ErrorFunc, roles ...string) Middleware {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil || !allowed[user.Role] {
				writeErr(w, r, service.ErrNotPermitted)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth is like Protect but lets unauthenticated requests
// through. Used for server-rendered pages that adapt to login state.
func OptionalAuth(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				// Invalid token, but optional so continue without auth
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the authenticated user from context
func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserKey).(*model.User); ok {
		return user
	}
	return nil
}
