// portal-api serves the mock HCMUT portal backend.
//
// @title           HCMUT Portal API
// @version         1.0
// @description     Mock API powering the Tutor-Student portal demo.
// @BasePath        /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/hcmut-portal/portal-api/docs"
	"github.com/hcmut-portal/portal-api/internal/api"
	"github.com/hcmut-portal/portal-api/internal/api/handler"
	"github.com/hcmut-portal/portal-api/internal/core/ports"
	"github.com/hcmut-portal/portal-api/internal/core/service"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/db/bundlestore"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/db/filestore"
	mongostore "github.com/hcmut-portal/portal-api/internal/infrastructure/db/mongo"
	redisstore "github.com/hcmut-portal/portal-api/internal/infrastructure/db/redis"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/pdf"
	"github.com/hcmut-portal/portal-api/internal/infrastructure/storage"
	"github.com/hcmut-portal/portal-api/internal/pkg/config"
	"github.com/hcmut-portal/portal-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "portal-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "portal-api",
	})

	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	var opts []bundlestore.Option
	if cfg.Bundle.SeedDir != "" {
		opts = append(opts, bundlestore.WithSeed(filestore.NewBundleBackend(cfg.Bundle.SeedDir)))
	}
	store := bundlestore.New(backend, log.With().Str("component", "bundlestore").Logger(), opts...)
	if err := store.Bootstrap(ctx); err != nil {
		return err
	}

	tokens, err := tokenIssuer(cfg)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Log:       log,
		Auth:      service.NewAuthService(store, tokens, cfg.LoginDomain, log.With().Str("component", "auth").Logger()),
		Tokens:    tokens,
		Portal:    service.NewPortalService(store),
		Reports:   pdf.NewRenderer(pdf.Options{FontPath: cfg.PDFFontPath}, log.With().Str("component", "pdf").Logger()),
		Materials: storage.NewMaterialStore(storage.Options{Dir: cfg.Static.MaterialsDir, MaxBytes: cfg.MaxUploadBytes()}, log),
		Health: map[string]handler.Pinger{
			"bundles": store,
		},
		MaterialsDir:   cfg.Static.MaterialsDir,
		ImagesDir:      cfg.Static.ImagesDir,
		PDFDir:         cfg.Static.PDFDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("backend", cfg.Bundle.Backend).
			Str("token_mode", cfg.TokenMode).
			Msg("portal api listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.BundleBackend, func(), error) {
	switch cfg.Bundle.Backend {
	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis bundle backend connected")
		return redisstore.NewBundleBackend(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("db", cfg.Mongo.Database).Msg("mongo bundle backend connected")
		return mongostore.NewBundleBackend(db), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}, nil

	default:
		return filestore.NewBundleBackend(cfg.Bundle.Dir), func() {}, nil
	}
}

func tokenIssuer(cfg *config.Config) (ports.TokenIssuer, error) {
	if cfg.TokenMode == config.TokenModeJWT {
		issuer, err := service.NewJWTTokenIssuer(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return issuer, nil
	}
	return service.MockTokenIssuer{}, nil
}
