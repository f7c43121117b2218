package client

import (
	"context"
	"net/http"

	"github.com/afisha/events/internal/models"
)

// Authenticator is implemented by the backend client and by AdminBypass.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthClient calls the backend's /api/auth endpoints.
type AuthClient struct {
	base
}

func NewAuthClient(baseURL string, httpClient *http.Client) *AuthClient {
	return &AuthClient{base: newBase(baseURL, httpClient)}
}

// Register calls POST /api/auth/register.
func (c *AuthClient) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	req := models.RegisterRequest{Username: username, Email: email, Password: password}
	var out models.AuthResponse
	if err := c.call(ctx, "register", http.MethodPost, "/auth/register", "", req, &out, true, "registration failed"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login calls POST /api/auth/login.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	req := models.LoginRequest{Email: email, Password: password}
	var out models.AuthResponse
	if err := c.call(ctx, "login", http.MethodPost, "/auth/login", "", req, &out, true, "login failed"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser calls GET /api/auth/me with the bearer token.
func (c *AuthClient) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var out models.User
	if err := c.call(ctx, "current user", http.MethodGet, "/auth/me", token, nil, &out, false, "could not load the current user"); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeSession calls POST /api/auth/logout so the backend forgets the token.
func (c *AuthClient) RevokeSession(ctx context.Context, token string) error {
	return c.call(ctx, "logout", http.MethodPost, "/auth/logout", token, nil, nil, false, "logout failed")
}
