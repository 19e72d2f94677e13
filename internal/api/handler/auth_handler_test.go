package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, email string) (*ports.LoginResult, error)
	meFn    func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email)
}

func (s *stubAuthService) Me(ctx context.Context, token string) (*domain.User, error) {
	return s.meFn(ctx, token)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email string) (*ports.LoginResult, error) {
			if email != "student@hcmut.edu.vn" {
				t.Fatalf("unexpected email: %s", email)
			}
			return &ports.LoginResult{
				Token: "mock-token-student",
				Role:  domain.RoleStudent,
				User:  domain.User{Identifier: "stu-20127001", Email: email, Role: domain.RoleStudent},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"student@hcmut.edu.vn","password":"ignored"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "mock-token-student" || resp["role"] != "student" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["identifier"] != "stu-20127001" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Login_PasswordOptional(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email string) (*ports.LoginResult, error) {
			return &ports.LoginResult{Token: "t", Role: domain.RoleStaff}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"x@hcmut.edu.vn"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := handler.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthHandler_Login_InvalidDomain(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email string) (*ports.LoginResult, error) {
			return nil, &domain.InvalidDomainError{Domain: "@hcmut.edu.vn"}
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@gmail.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := handler.Login(e.NewContext(req, rec))
	if !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("expected ErrInvalidDomain, got %v", err)
	}
}

func TestAuthHandler_Login_Validation(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email string) (*ports.LoginResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	for _, body := range []string{`{`, `{}`, `{"email":"not-an-email"}`} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		if code := httpCode(t, handler.Login(e.NewContext(req, rec))); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, code)
		}
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{
		meFn: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "mock-token-tutor" {
				t.Fatalf("unexpected token %q", token)
			}
			return &domain.User{Identifier: "tutor-1975", Role: domain.RoleTutor}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyToken, "mock-token-tutor")

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"identifier":"tutor-1975"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAuthHandler_Me_WithoutToken(t *testing.T) {
	e := newEcho()
	handler := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()

	if code := httpCode(t, handler.Me(e.NewContext(req, rec))); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
