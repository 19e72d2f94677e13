package handler

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// Context keys written by middleware.Auth.
const (
	ContextKeyRole  = "role"
	ContextKeyToken = "token"
)

// ctxToken returns the bearer token accepted by the Auth middleware.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(ContextKeyToken).(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication token")
	}
	return token, nil
}

// pathRole parses the :role segment case-insensitively.
func pathRole(c echo.Context) (domain.Role, error) {
	return domain.ParseRole(c.Param("role"))
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
