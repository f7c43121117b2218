package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionStore wraps Redis for bearer-token sessions.
type SessionStore struct {
	rdb   *redis.Client
	ttl   time.Duration
	newID func() string
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{rdb: rdb, ttl: ttl, newID: uuid.NewString}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create stores a new session mapping token -> userID and returns the token.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := s.newID()
	err := s.rdb.Set(ctx, sessionKey(token), userID, s.ttl).Err()
	return token, err
}

// Get returns the userID for a token, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, token string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

type ctxKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user id stored by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
