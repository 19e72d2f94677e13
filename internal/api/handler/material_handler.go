package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/ports"
)

type MaterialHandler struct {
	store ports.MaterialStore
}

func NewMaterialHandler(store ports.MaterialStore) *MaterialHandler {
	return &MaterialHandler{store: store}
}

// Upload stores a course material under a generated name.
//
// @Summary      Upload material
// @Tags         materials
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Material file"
// @Success      200   {object}  ports.StoredFile
// @Failure      400   {object}  map[string]string
// @Failure      413   {object}  map[string]string
// @Router       /materials/upload [post]
func (h *MaterialHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer src.Close()

	stored, err := h.store.Save(c.Request().Context(), file.Filename, src)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stored)
}
