package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/afisha/events/internal/httpjson"
	"github.com/afisha/events/internal/models"
	"github.com/afisha/events/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	sessions *SessionStore
	log      *slog.Logger
}

func NewHandler(users UserStore, sessions *SessionStore, log *slog.Logger) *Handler {
	return &Handler{users: users, sessions: sessions, log: log}
}

// Register creates a new user and signs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := models.Validate(req); err != nil {
		httpjson.Invalid(w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash password", "error", err)
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, string(hashed))
	if errors.Is(err, store.ErrDuplicate) {
		httpjson.Error(w, http.StatusConflict, "a user with this email already exists")
		return
	}
	if err != nil {
		h.log.Error("create user", "error", err)
		httpjson.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.issue(w, r, http.StatusCreated, user)
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.log.Error("lookup user", "error", err)
		}
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.issue(w, r, http.StatusOK, user)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.log.Error("create session", "error", err)
		httpjson.Error(w, http.StatusInternalServerError, "session creation failed")
		return
	}
	httpjson.Write(w, status, models.AuthResponse{User: *user, Token: token})
}

// Logout destroys the session behind the bearer token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := BearerToken(r); ok {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			h.log.Warn("delete session", "error", err)
		}
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil || user == nil {
		httpjson.Error(w, http.StatusNotFound, "user not found")
		return
	}

	httpjson.Write(w, http.StatusOK, user)
}
