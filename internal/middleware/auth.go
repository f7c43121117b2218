package middleware

import (
	"context"
	"net/http"

	"github.com/afisha/events/internal/auth"
	"github.com/afisha/events/internal/httpjson"
	"github.com/afisha/events/internal/models"
)

// SessionLookup resolves a bearer token to a user id ("" when unknown).
type SessionLookup interface {
	Get(ctx context.Context, token string) (string, error)
}

// UserLookup loads a user by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth is middleware that validates the bearer token and
// injects the user id into the request context.
func RequireAuth(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			userID, err := sessions.Get(r.Context(), token)
			if err != nil || userID == "" {
				httpjson.Error(w, http.StatusUnauthorized, "session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// RequireAdmin must run after RequireAuth. It rejects users without the admin flag.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserID(r.Context())
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil || !user.IsAdmin {
				httpjson.Error(w, http.StatusForbidden, "administrator access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
