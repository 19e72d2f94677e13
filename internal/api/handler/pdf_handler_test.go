package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

func pdfContext(e *echo.Echo, name string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/pdfs/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/pdfs/*")
	c.SetParamNames("*")
	c.SetParamValues(name)
	return c, rec
}

func pdfDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "pdfs")
	if err := os.MkdirAll(filepath.Join(dir, "guides"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "guides", "handbook.pdf"), []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "secret.pdf"), []byte("%PDF-1.4 secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestPDFHandler_Serve_Inline(t *testing.T) {
	e := newEcho()
	handler := NewPDFHandler(pdfDir(t))

	c, rec := pdfContext(e, "guides/handbook.pdf")
	if err := handler.Serve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `inline; filename="handbook.pdf"` {
		t.Errorf("unexpected Content-Disposition %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", got)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "application/pdf" {
		t.Errorf("unexpected Content-Type %q", got)
	}
}

func TestPDFHandler_Serve_RejectsOtherTypes(t *testing.T) {
	e := newEcho()
	handler := NewPDFHandler(pdfDir(t))

	c, _ := pdfContext(e, "guides/handbook.txt")
	if err := handler.Serve(c); !errors.Is(err, domain.ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestPDFHandler_Serve_NotFound(t *testing.T) {
	e := newEcho()
	handler := NewPDFHandler(pdfDir(t))

	for _, name := range []string{"missing.pdf", "../secret.pdf", "guides/../../secret.pdf", "%2e%2e/secret.pdf", "guides.pdf"} {
		c, _ := pdfContext(e, name)
		if code := httpCode(t, handler.Serve(c)); code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", name, code)
		}
	}
}

func TestPDFHandler_Serve_NoDirectory(t *testing.T) {
	e := newEcho()
	handler := NewPDFHandler(filepath.Join(t.TempDir(), "absent"))

	c, _ := pdfContext(e, "a.pdf")
	if code := httpCode(t, handler.Serve(c)); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}
