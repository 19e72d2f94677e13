package service

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

const mockTokenPrefix = "mock-token-"

// MockTokenIssuer hands out "mock-token-<role>". It is the default.
type MockTokenIssuer struct{}

func (MockTokenIssuer) Issue(role domain.Role, _ domain.User) (string, error) {
	return mockTokenPrefix + role.String(), nil
}

func (MockTokenIssuer) Resolve(token string) (domain.Role, error) {
	name, ok := strings.CutPrefix(token, mockTokenPrefix)
	if !ok {
		return "", domain.ErrInvalidToken
	}
	role, err := domain.ParseRole(name)
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	return role, nil
}

// JWTTokenIssuer signs HS256 tokens without expiry. The claims depend only
// on the user, so the same user always receives the same token.
type JWTTokenIssuer struct {
	secret []byte
}

func NewJWTTokenIssuer(secret string) (*JWTTokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt token issuer: empty secret")
	}
	return &JWTTokenIssuer{secret: []byte(secret)}, nil
}

func (i *JWTTokenIssuer) Issue(role domain.Role, user domain.User) (string, error) {
	claims := jwt.MapClaims{
		"role":  role.String(),
		"sub":   user.Identifier,
		"email": user.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *JWTTokenIssuer) Resolve(token string) (domain.Role, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrInvalidToken
	}

	name, _ := claims["role"].(string)
	role, err := domain.ParseRole(name)
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	return role, nil
}
