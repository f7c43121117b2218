// Package session owns the signed-in user of one client process.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/afisha/events/internal/models"
)

// Fixed storage keys. Both are written on login and removed together on logout.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// State is the lifecycle position of a Session.
type State int

const (
	Hydrating State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Storage persists session keys between runs.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Resolver turns a stored token back into a user.
type Resolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// snapshot is replaced wholesale, never edited in place.
type snapshot struct {
	state State
	user  *models.User
	token string
}

// Session is created once per process and passed to whoever needs the current user.
type Session struct {
	store    Storage
	resolver Resolver
	log      *slog.Logger

	mu  sync.RWMutex
	cur snapshot
}

func New(store Storage, resolver Resolver, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		store:    store,
		resolver: resolver,
		log:      log,
		cur:      snapshot{state: Hydrating},
	}
}

// Hydrate restores the session from storage. A stored token the resolver rejects
// is cleared and the session becomes anonymous; Hydrate itself only fails when
// storage does.
func (s *Session) Hydrate(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		s.replace(snapshot{state: Anonymous})
		return fmt.Errorf("read stored token: %w", err)
	}
	if !ok || token == "" {
		s.replace(snapshot{state: Anonymous})
		return nil
	}

	user, err := s.resolver.CurrentUser(ctx, token)
	if err != nil {
		s.log.Debug("stored token rejected", "error", err)
		s.replace(snapshot{state: Anonymous})
		if err := ClearPersisted(ctx, s.store); err != nil {
			return err
		}
		return nil
	}

	s.replace(snapshot{state: Authenticated, user: user, token: token})
	return nil
}

// Login persists token and user, then makes user the current identity. When
// storage fails the session keeps its previous identity and any partial write
// is removed.
func (s *Session) Login(ctx context.Context, user models.User, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.store.Set(ctx, UserKey, string(raw)); err != nil {
		if cerr := ClearPersisted(ctx, s.store); cerr != nil {
			s.log.Warn("roll back session write", "error", cerr)
		}
		return fmt.Errorf("persist user: %w", err)
	}

	s.replace(snapshot{state: Authenticated, user: &user, token: token})
	return nil
}

// Logout forgets the current identity and clears storage.
func (s *Session) Logout(ctx context.Context) error {
	s.replace(snapshot{state: Anonymous})
	return ClearPersisted(ctx, s.store)
}

// ClearPersisted removes both session keys from store. No network call is made.
func ClearPersisted(ctx context.Context, store Storage) error {
	if err := store.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) replace(next snapshot) {
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()
}

func (s *Session) load() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Session) State() State { return s.load().state }

func (s *Session) Token() string { return s.load().token }

// User returns a copy of the current user, or nil when anonymous.
func (s *Session) User() *models.User {
	cur := s.load()
	if cur.user == nil {
		return nil
	}
	u := *cur.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	return s.load().state == Authenticated
}

func (s *Session) IsAdmin() bool {
	cur := s.load()
	return cur.state == Authenticated && cur.user != nil && cur.user.IsAdmin
}
