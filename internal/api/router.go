package api

import (
	"fmt"
	"os"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/hcmut-portal/portal-api/internal/api/handler"
	"github.com/hcmut-portal/portal-api/internal/api/middleware"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
)

// APIPrefix is where the frontend expects every route. The same routes are
// also served from the root.
const APIPrefix = "/api"

// multipart framing on top of the file itself
const uploadOverhead = 64 << 10

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log zerolog.Logger

	Auth      ports.AuthService
	Tokens    ports.TokenIssuer
	Portal    ports.PortalService
	Reports   ports.ReportRenderer
	Materials ports.MaterialStore

	// Registerer and Gatherer back /metrics. Nil selects the default
	// Prometheus registry, which also holds the custom portal metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	// Health lists the dependencies pinged by /health/ready.
	Health map[string]handler.Pinger

	MaterialsDir   string
	ImagesDir      string
	PDFDir         string
	MaxUploadBytes int64
}

type routes interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORS())
	reg, gatherer := d.Registerer, d.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Subsystem:  "http",
		Registerer: reg,
	}))

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	register(e, d)
	register(e.Group(APIPrefix), d)

	return e
}

func register(r routes, d Deps) {
	health := handler.NewHealthHandler(d.Health)
	r.GET("/health", health.Liveness)
	r.GET("/health/ready", health.Readiness)

	auth := handler.NewAuthHandler(d.Auth)
	r.POST("/auth/login", auth.Login)
	r.GET("/auth/me", auth.Me, middleware.Auth(d.Tokens))

	portal := handler.NewPortalHandler(d.Portal)
	r.GET("/portal/:role/bundle", portal.GetBundle)
	r.PUT("/portal/:role/bundle", portal.UpdateBundle)

	materials := handler.NewMaterialHandler(d.Materials)
	r.POST("/materials/upload", materials.Upload, bodyLimit(d.MaxUploadBytes))

	reports := handler.NewReportHandler(d.Reports)
	r.POST("/reports/generate-pdf", reports.Generate)

	pdfs := handler.NewPDFHandler(d.PDFDir)
	r.GET("/pdfs/*", pdfs.Serve)

	// Static mounts only exist when their directory does.
	if isDir(d.MaterialsDir) {
		r.GET("/materials/*", echo.StaticDirectoryHandler(os.DirFS(d.MaterialsDir), false), untrustedContent())
	}
	if isDir(d.ImagesDir) {
		r.GET("/images/*", echo.StaticDirectoryHandler(os.DirFS(d.ImagesDir), false))
	}
}

// untrustedContent keeps user uploads from running as same-origin pages:
// no MIME sniffing and a sandboxed document for HTML or SVG.
func untrustedContent() echo.MiddlewareFunc {
	return echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		ContentSecurityPolicy: "sandbox",
	})
}

func bodyLimit(maxBytes int64) echo.MiddlewareFunc {
	if maxBytes <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomiddleware.BodyLimit(fmt.Sprintf("%dK", (maxBytes+uploadOverhead+1023)>>10))
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
