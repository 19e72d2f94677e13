package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
)

type PortalHandler struct {
	service ports.PortalService
}

func NewPortalHandler(service ports.PortalService) *PortalHandler {
	return &PortalHandler{service: service}
}

type updateBundleResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetBundle returns the role's full portal bundle.
//
// @Summary      Get portal bundle
// @Tags         portal
// @Produce      json
// @Param        role  path      string  true  "student, tutor or staff"
// @Success      200   {object}  map[string]any
// @Failure      404   {object}  map[string]string
// @Router       /portal/{role}/bundle [get]
func (h *PortalHandler) GetBundle(c echo.Context) error {
	role, err := pathRole(c)
	if err != nil {
		return err
	}

	bundle, err := h.service.BundleFor(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bundle)
}

// UpdateBundle replaces the role's bundle with the request body.
//
// @Summary      Replace portal bundle
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        role  path      string          true  "student, tutor or staff"
// @Param        body  body      map[string]any  true  "Complete bundle document"
// @Success      200   {object}  updateBundleResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /portal/{role}/bundle [put]
func (h *PortalHandler) UpdateBundle(c echo.Context) error {
	role, err := pathRole(c)
	if err != nil {
		return err
	}

	// BindBody skips path params, which would otherwise land in the document.
	var doc domain.Bundle
	if err := (&echo.DefaultBinder{}).BindBody(c, &doc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "bundle must be a JSON object")
	}

	if err := h.service.UpdateBundleFor(c.Request().Context(), role, doc); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updateBundleResponse{
		Status:  "success",
		Message: fmt.Sprintf("Bundle for %s updated successfully.", role),
	})
}
