package handler

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// PDFHandler serves static PDF documents from a single directory.
type PDFHandler struct {
	dir string
}

func NewPDFHandler(dir string) *PDFHandler {
	return &PDFHandler{dir: dir}
}

// Serve streams a PDF inline.
//
// @Summary      Serve PDF
// @Tags         pdfs
// @Produce      application/pdf
// @Param        path  path      string  true  "Path below the PDF directory"
// @Success      200   {file}    binary
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /pdfs/{path} [get]
func (h *PDFHandler) Serve(c echo.Context) error {
	base, err := h.base()
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "PDF directory not configured")
	}

	name, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return domain.ErrUnsupportedFileType
	}

	target, ok := resolveWithin(base, name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Inline(target, filepath.Base(target))
}

func (h *PDFHandler) base() (string, error) {
	if h.dir == "" {
		return "", os.ErrNotExist
	}
	abs, err := filepath.Abs(h.dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", os.ErrNotExist
	}
	return abs, nil
}

// resolveWithin returns the regular file rel names inside base. Paths that
// escape base, directly or through symlinks, are rejected.
func resolveWithin(base, rel string) (string, bool) {
	target := filepath.Join(base, filepath.FromSlash(rel))
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", false
	}
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", false
	}
	r, err := filepath.Rel(realBase, resolved)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return resolved, true
}
