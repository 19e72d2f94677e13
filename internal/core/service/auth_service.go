package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/pkg/metrics"
)

// DefaultLoginDomain is the suffix every demo login email must carry.
const DefaultLoginDomain = "@hcmut.edu.vn"

// AuthService signs demo users in. Passwords are accepted and ignored.
type AuthService struct {
	repo        ports.BundleRepository
	tokens      ports.TokenIssuer
	loginDomain string
	log         zerolog.Logger
}

func NewAuthService(repo ports.BundleRepository, tokens ports.TokenIssuer, loginDomain string, log zerolog.Logger) *AuthService {
	if tokens == nil {
		tokens = MockTokenIssuer{}
	}
	if loginDomain == "" {
		loginDomain = DefaultLoginDomain
	}
	return &AuthService{repo: repo, tokens: tokens, loginDomain: loginDomain, log: log}
}

func (s *AuthService) Login(ctx context.Context, email string) (*ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if !strings.HasSuffix(strings.ToLower(email), strings.ToLower(s.loginDomain)) {
		metrics.LoginsTotal.WithLabelValues("invalid_domain").Inc()
		return nil, &domain.InvalidDomainError{Domain: s.loginDomain}
	}

	role := s.repo.FindRoleByEmail(email)
	user, err := s.repo.User(role)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	token, err := s.tokens.Issue(role, user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: issue token: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues(role.String()).Inc()

	s.log.Info().Str("email", email).Str("role", role.String()).Msg("demo user signed in")

	return &ports.LoginResult{Token: token, Role: role, User: user}, nil
}

// Me resolves the user a previously issued token belongs to.
func (s *AuthService) Me(ctx context.Context, token string) (*domain.User, error) {
	role, err := s.tokens.Resolve(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.User(role)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &user, nil
}
