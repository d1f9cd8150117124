package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/sessions"

	"event-registration-platform/internal/models"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// TokenValidator resolves a JWT into a user. Satisfied by
// services.AuthService.
type TokenValidator interface {
	ValidateToken(token string) (*models.User, error)
}

// UserLoader resolves a user ID into a user. Satisfied by
// repositories.UserRepository.
type UserLoader interface {
	GetByID(id int) (*models.User, error)
}

// AuthMiddleware provides authentication functionality. Browser clients
// authenticate via the session cookie; API clients via a bearer token.
type AuthMiddleware struct {
	tokens TokenValidator
	users  UserLoader
	store  sessions.Store
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens TokenValidator, users UserLoader, store sessions.Store) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		store:  store,
	}
}

// LoadUser loads the current user from the bearer token or session and adds
// it to the request context. Requests without credentials pass through
// anonymously.
func (m *AuthMiddleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.userFromBearer(r); user != nil {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
			return
		}

		if user := m.userFromSession(r); user != nil {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects anonymous requests with 401
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose user lacks any of the given roles
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func (m *AuthMiddleware) userFromBearer(r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}

	user, err := m.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}
	return user
}

func (m *AuthMiddleware) userFromSession(r *http.Request) *models.User {
	session, err := m.store.Get(r, "session")
	if err != nil {
		return nil
	}

	userID, ok := session.Values["user_id"].(int)
	if !ok || userID == 0 {
		// Session stores may round-trip ints through other types.
		switch v := session.Values["user_id"].(type) {
		case float64:
			userID = int(v)
		case string:
			userID, _ = strconv.Atoi(v)
		}
		if userID == 0 {
			return nil
		}
	}

	user, err := m.users.GetByID(userID)
	if err != nil {
		return nil
	}
	return user
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user, or nil
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
