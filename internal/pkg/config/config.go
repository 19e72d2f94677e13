package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"

	TokenModeMock = "mock"
	TokenModeJWT  = "jwt"
)

type Config struct {
	Port     string `env:"PORT,      default=8000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	LoginDomain string `env:"LOGIN_DOMAIN, default=@hcmut.edu.vn"`
	TokenMode   string `env:"TOKEN_MODE,   default=mock"`
	JWTSecret   string `env:"JWT_SECRET"`

	Bundle BundleConfig
	Static StaticConfig
	Redis  RedisConfig
	Mongo  MongoConfig

	PDFFontPath string `env:"PDF_FONT_PATH"`
	MaxUploadMB int64  `env:"MAX_UPLOAD_MB, default=20"`
}

type BundleConfig struct {
	// Backend selects where bundles persist: file, redis or mongo.
	Backend string `env:"BUNDLE_BACKEND,  default=file"`
	Dir     string `env:"BUNDLE_DIR,      default=data/bundles"`
	// SeedDir, when set, fills roles missing from a fresh backend.
	SeedDir string `env:"BUNDLE_SEED_DIR"`
}

type StaticConfig struct {
	MaterialsDir string `env:"MATERIALS_DIR, default=static/materials"`
	ImagesDir    string `env:"IMAGES_DIR,    default=static/images"`
	PDFDir       string `env:"PDF_DIR,       default=static/pdfs"`
}

type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR,       default=localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB,         default=0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX, default=portal:bundle:"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=hcmut_portal"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Bundle.Backend = strings.ToLower(cfg.Bundle.Backend)
	cfg.TokenMode = strings.ToLower(cfg.TokenMode)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Bundle.Backend {
	case BackendFile, BackendRedis, BackendMongo:
	default:
		errs = append(errs, fmt.Errorf("BUNDLE_BACKEND must be one of file, redis, mongo; got %q", c.Bundle.Backend))
	}
	switch c.TokenMode {
	case TokenModeMock:
	case TokenModeJWT:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when TOKEN_MODE=jwt"))
		}
	default:
		errs = append(errs, fmt.Errorf("TOKEN_MODE must be mock or jwt; got %q", c.TokenMode))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
