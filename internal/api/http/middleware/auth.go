package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"equiprent-backend/internal/api/http/respond"
	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
)

type contextKey int

const userKey contextKey = iota

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Auth resolves the caller from the bearer token according to the route's
// security level. The user is reloaded on every request so role and status
// changes apply immediately.
type Auth struct {
	auth service.AuthService
}

func NewAuth(auth service.AuthService) *Auth {
	return &Auth{auth: auth}
}

func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		want := security.TokenTypeAccess
		if level == config.SecurityRefresh {
			want = security.TokenTypeRefresh
		}

		if token == "" {
			if level == config.SecurityOptional {
				next.ServeHTTP(w, r)
				return
			}
			respond.Message(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}

		user, err := a.auth.Authenticate(r.Context(), token, want)
		if err != nil {
			if !isCredentialError(err) {
				respond.Error(w, r, err)
				return
			}
			if level == config.SecurityOptional {
				next.ServeHTTP(w, r)
				return
			}
			respond.Message(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// isCredentialError reports whether err means the token or its account is
// unusable, as opposed to a failure while checking it.
func isCredentialError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotFound)
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// RequireRoles admits approved users whose role satisfies one of roles.
func RequireRoles(roles ...domain.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := domain.Authorize(UserFromContext(r.Context()), roles...); err != nil {
				respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUserType admits approved users of the given account type.
func RequireUserType(userType domain.UserType) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if err := domain.Authorize(user); err != nil {
				respond.Error(w, r, err)
				return
			}
			if user.UserType != userType {
				respond.Message(w, http.StatusForbidden, "only "+strings.ToLower(string(userType))+"s can do this")
				return
			}
			next(w, r)
		}
	}
}
