package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afisha/events/internal/client"
	"github.com/afisha/events/internal/models"
	"github.com/afisha/events/internal/session"
)

type memStorage map[string]string

func (m memStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memStorage) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memStorage) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

// failingStorage rejects writes to one key.
type failingStorage struct {
	memStorage
	failKey string
}

func (f failingStorage) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.memStorage.Set(ctx, key, value)
}

// stubResolver counts calls and accepts only one token.
type stubResolver struct {
	calls int
	token string
	user  models.User
}

func (r *stubResolver) CurrentUser(_ context.Context, token string) (*models.User, error) {
	r.calls++
	if token != r.token {
		return nil, client.ErrRequestFailed
	}
	u := r.user
	return &u, nil
}

func (r *stubResolver) Register(context.Context, string, string, string) (*models.AuthResponse, error) {
	return nil, errors.New("unused")
}

func (r *stubResolver) Login(context.Context, string, string) (*models.AuthResponse, error) {
	return nil, errors.New("unused")
}

func TestSession_InitialStateIsHydrating(t *testing.T) {
	s := session.New(memStorage{}, &stubResolver{}, nil)
	assert.Equal(t, session.Hydrating, s.State())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
}

func TestSession_HydrateWithoutToken(t *testing.T) {
	res := &stubResolver{}
	s := session.New(memStorage{}, res, nil)

	require.NoError(t, s.Hydrate(context.Background()))
	assert.Equal(t, session.Anonymous, s.State())
	assert.Zero(t, res.calls)
}

func TestSession_HydrateSentinelNoNetwork(t *testing.T) {
	backend := &stubResolver{}
	auth := client.NewAdminBypass(backend, client.DefaultAdminCredentials())
	store := memStorage{session.TokenKey: client.AdminSentinelToken}

	s := session.New(store, auth, nil)
	require.NoError(t, s.Hydrate(context.Background()))

	assert.Equal(t, session.Authenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "Администратор", s.User().Username)
	assert.Equal(t, client.AdminSentinelToken, s.Token())
	assert.Zero(t, backend.calls)
}

func TestSession_HydrateInvalidTokenClearsStorage(t *testing.T) {
	res := &stubResolver{token: "valid"}
	store := memStorage{session.TokenKey: "expired", session.UserKey: `{"id":"u-1"}`}

	s := session.New(store, res, nil)
	require.NoError(t, s.Hydrate(context.Background()))

	assert.Equal(t, session.Anonymous, s.State())
	assert.Equal(t, 1, res.calls)
	assert.Empty(t, store)
}

func TestSession_HydrateValidToken(t *testing.T) {
	res := &stubResolver{token: "valid", user: models.User{ID: "u-1", Username: "anna"}}
	s := session.New(memStorage{session.TokenKey: "valid"}, res, nil)

	require.NoError(t, s.Hydrate(context.Background()))
	assert.Equal(t, session.Authenticated, s.State())
	assert.False(t, s.IsAdmin())
	assert.Equal(t, "u-1", s.User().ID)
}

func TestSession_LoginLogout(t *testing.T) {
	store := memStorage{}
	s := session.New(store, &stubResolver{}, nil)
	ctx := context.Background()

	user := models.User{ID: "u-7", Username: "ivan", IsAdmin: true}
	require.NoError(t, s.Login(ctx, user, "tok-7"))
	assert.Equal(t, session.Authenticated, s.State())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "tok-7", store[session.TokenKey])

	var stored models.User
	require.NoError(t, json.Unmarshal([]byte(store[session.UserKey]), &stored))
	assert.Equal(t, "ivan", stored.Username)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, session.Anonymous, s.State())
	assert.False(t, s.IsAdmin())
	assert.Empty(t, s.Token())
	assert.Empty(t, store)
}

func TestSession_UserReturnsCopy(t *testing.T) {
	s := session.New(memStorage{}, &stubResolver{}, nil)
	require.NoError(t, s.Login(context.Background(), models.User{ID: "u-1", Username: "anna"}, "t"))

	u := s.User()
	u.Username = "mutated"
	assert.Equal(t, "anna", s.User().Username)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "hydrating", session.Hydrating.String())
	assert.Equal(t, "anonymous", session.Anonymous.String())
	assert.Equal(t, "authenticated", session.Authenticated.String())
}

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := session.NewFileStorage(path)
	ctx := context.Background()

	_, ok, err := fs.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Set(ctx, session.TokenKey, "tok"))
	require.NoError(t, fs.Set(ctx, session.UserKey, `{"id":"u"}`))

	v, ok, err := session.NewFileStorage(path).Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, session.ClearPersisted(ctx, fs))
	_, ok, err = fs.Get(ctx, session.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorage(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := session.NewRedisStorage(db, "test")
	ctx := context.Background()

	mock.ExpectGet("test:token").RedisNil()
	_, ok, err := rs.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectSet("test:token", "tok", 0).SetVal("OK")
	require.NoError(t, rs.Set(ctx, session.TokenKey, "tok"))

	mock.ExpectGet("test:token").SetVal("tok")
	v, ok, err := rs.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	mock.ExpectDel("test:token", "test:user").SetVal(2)
	require.NoError(t, session.ClearPersisted(ctx, rs))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorage_HydrateFailureClears(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := session.NewRedisStorage(db, "")
	res := &stubResolver{token: "other"}

	mock.ExpectGet("afisha:session:token").SetVal("stale")
	mock.ExpectDel("afisha:session:token", "afisha:session:user").SetVal(1)

	s := session.New(rs, res, nil)
	require.NoError(t, s.Hydrate(context.Background()))
	assert.Equal(t, session.Anonymous, s.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_LoginStorageFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	for _, key := range []string{session.TokenKey, session.UserKey} {
		store := failingStorage{memStorage: memStorage{}, failKey: key}
		s := session.New(store, &stubResolver{}, nil)
		require.NoError(t, s.Hydrate(ctx))

		err := s.Login(ctx, models.User{ID: "u-1", Username: "anna"}, "tok")
		require.Error(t, err, key)
		assert.Equal(t, session.Anonymous, s.State(), key)
		assert.Empty(t, s.Token(), key)
		assert.Nil(t, s.User(), key)
		assert.Empty(t, store.memStorage, key)
	}
}
