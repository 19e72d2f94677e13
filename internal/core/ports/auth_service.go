package ports

import (
	"context"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
	User  domain.User `json:"user"`
}

type AuthService interface {
	Login(ctx context.Context, email string) (*LoginResult, error)
	Me(ctx context.Context, token string) (*domain.User, error)
}

// TokenIssuer mints and resolves the placeholder session tokens handed out
// on login. Tokens carry no expiry.
type TokenIssuer interface {
	Issue(role domain.Role, user domain.User) (string, error)
	Resolve(token string) (domain.Role, error)
}
