package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/afisha/events/internal/models"
	"github.com/afisha/events/internal/store"
)

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) CreateUser(_ context.Context, username, email, hashed string) (*models.User, error) {
	if _, ok := f.users[email]; ok {
		return nil, store.ErrDuplicate
	}
	u := &models.User{ID: "u-" + username, Username: username, Email: email, Password: hashed}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func setupTestHandler() (*Handler, *fakeUsers, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	sessions := NewSessionStore(db, time.Hour)
	sessions.newID = func() string { return "fixed-token" }
	users := &fakeUsers{users: map[string]*models.User{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(users, sessions, log), users, mock
}

func post(h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister_ReturnsUserAndToken(t *testing.T) {
	h, _, mock := setupTestHandler()
	mock.ExpectSet("session:fixed-token", "u-anna", time.Hour).SetVal("OK")

	rec := post(h.Register, models.RegisterRequest{Username: "anna", Email: "Anna@Example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var out models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "fixed-token", out.Token)
	assert.Equal(t, "anna@example.com", out.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Duplicate(t *testing.T) {
	h, users, _ := setupTestHandler()
	users.users["anna@example.com"] = &models.User{ID: "u-1", Email: "anna@example.com"}

	rec := post(h.Register, models.RegisterRequest{Username: "anna", Email: "anna@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	h, users, mock := setupTestHandler()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	users.users["anna@example.com"] = &models.User{ID: "u-1", Username: "anna", Email: "anna@example.com", Password: string(hash)}
	mock.ExpectSet("session:fixed-token", "u-1", time.Hour).SetVal("OK")

	rec := post(h.Login, models.LoginRequest{Email: "anna@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "fixed-token", out.Token)
	assert.Equal(t, "u-1", out.User.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogout_DeletesSession(t *testing.T) {
	h, _, mock := setupTestHandler()
	mock.ExpectDel("session:tok").SetVal(1)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewSessionStore(db, 0)
	mock.ExpectGet("session:gone").RedisNil()

	id, err := s.Get(context.Background(), "gone")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearer":     "",
		"":           "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		got, ok := BearerToken(req)
		assert.Equal(t, want, got, header)
		assert.Equal(t, want != "", ok, header)
	}
}
