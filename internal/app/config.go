package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), a .env file, or YAML config
// files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product image paths" flag:"image-base-url"`
	Storage      StorageConfig
	Catalog      CatalogConfig
	Session      SessionConfig
	Pricing      pricing.Config
	Payment      PaymentConfig
	Geocode      GeocodeConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects the key-value backend for sessions.
type StorageConfig struct {
	Driver      string `default:"postgres" usage:"Session storage driver: postgres, sqlite or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SQLitePath  string `default:"storefront.db" usage:"SQLite database file" flag:"sqlite-path"`
}

// CatalogConfig selects where products are read from. With a file set the
// catalog is served from memory; otherwise from the products table.
type CatalogConfig struct {
	File string `usage:"Catalog JSON file, optionally gzipped" flag:"catalog-file"`
}

// SessionConfig controls session tokens.
type SessionConfig struct {
	Secret string        `usage:"HMAC secret for session tokens (STOREFRONT_SESSION_SECRET)" flag:"session-secret"`
	TTL    time.Duration `default:"720h" usage:"Session token lifetime"`

	// RevocationRefresh bounds how long a logout on another replica can go
	// unnoticed.
	RevocationRefresh time.Duration `default:"5s" usage:"Interval for pulling revocations made by other processes"`
}

// PaymentConfig describes the UPI payee.
type PaymentConfig struct {
	UPIHandle string `default:"surplus@okaxis" usage:"UPI handle shown in payment QR codes"`
	PayeeName string `default:"SURPLUS" usage:"UPI payee name"`
	QRBaseURL string `default:"https://api.qrserver.com/v1/create-qr-code/" usage:"QR image generator endpoint"`
}

// GeocodeConfig configures the reverse geocoding client.
type GeocodeConfig struct {
	BaseURL   string        `default:"https://nominatim.openstreetmap.org" usage:"Nominatim-compatible endpoint"`
	UserAgent string        `default:"surplus-storefront/1.0" usage:"User-Agent sent to the geocoder"`
	Timeout   time.Duration `default:"5s" usage:"Reverse geocoding timeout"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env, then configuration from environment variables and
// YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	case DriverSQLite, DriverMemory:
		if c.Catalog.File == "" {
			return errors.Errorf("storage driver %q needs a catalog file: set STOREFRONT_CATALOG_FILE", c.Storage.Driver)
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("session secret must be at least 32 bytes: set STOREFRONT_SESSION_SECRET")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if _, err := c.Pricing.Rules(); err != nil {
		return errors.Wrap(err, "pricing")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
