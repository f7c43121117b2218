package client

import (
	"context"

	"github.com/afisha/events/internal/models"
)

// Defaults for the built-in administrator account.
const (
	DefaultAdminEmail    = "jobes5620@gmail.com"
	DefaultAdminPassword = "shiksu"
	AdminSentinelToken   = "admin-token-123456"
)

// AdminCredentials identify the administrator account recognised without the backend.
type AdminCredentials struct {
	Email    string
	Password string
	Token    string
}

func DefaultAdminCredentials() AdminCredentials {
	return AdminCredentials{
		Email:    DefaultAdminEmail,
		Password: DefaultAdminPassword,
		Token:    AdminSentinelToken,
	}
}

// AdminBypass answers for the administrator credentials and sentinel token locally
// and delegates everything else to next.
type AdminBypass struct {
	next  Authenticator
	creds AdminCredentials
}

func NewAdminBypass(next Authenticator, creds AdminCredentials) *AdminBypass {
	return &AdminBypass{next: next, creds: creds}
}

// AdminUser is the identity returned for the administrator credentials.
func (a *AdminBypass) AdminUser() models.User {
	return models.User{
		ID:       "admin1",
		Username: "Администратор",
		Email:    a.creds.Email,
		IsAdmin:  true,
	}
}

func (a *AdminBypass) matches(email, password string) bool {
	return a.creds.Email != "" && email == a.creds.Email && password == a.creds.Password
}

func (a *AdminBypass) adminResponse() *models.AuthResponse {
	return &models.AuthResponse{User: a.AdminUser(), Token: a.creds.Token}
}

func (a *AdminBypass) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	if a.matches(email, password) {
		return a.adminResponse(), nil
	}
	return a.next.Register(ctx, username, email, password)
}

func (a *AdminBypass) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	if a.matches(email, password) {
		return a.adminResponse(), nil
	}
	return a.next.Login(ctx, email, password)
}

func (a *AdminBypass) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token != "" && token == a.creds.Token {
		u := a.AdminUser()
		return &u, nil
	}
	return a.next.CurrentUser(ctx, token)
}

// IsSentinel reports whether token is the locally recognised administrator token.
func (a *AdminBypass) IsSentinel(token string) bool {
	return token != "" && token == a.creds.Token
}
