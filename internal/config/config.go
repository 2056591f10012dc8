package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/terang55/rainbow-rich-auth-server/pkg/hash"
)

// ErrConfiguration marks a configuration the server must not start with.
var ErrConfiguration = errors.New("invalid configuration")

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"licenses"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"licenses.db"`
	RedisURL      string `envconfig:"REDIS_URL"`

	SigningSecret      string `envconfig:"SIGNING_SECRET"`
	AdminSecretDigest  string `envconfig:"ADMIN_SECRET_DIGEST"`
	LicenseTokenSecret string `envconfig:"LICENSE_TOKEN_SECRET"`

	Products        []string `envconfig:"PRODUCTS" default:"default,rainbowg"`
	Timezone        string   `envconfig:"TIMEZONE" default:"UTC"`
	DefaultLanguage string   `envconfig:"DEFAULT_LANGUAGE" default:"en"`

	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	AllowedOrigin   string        `envconfig:"ALLOWED_ORIGIN" default:"http://localhost:3000"`

	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	MetricsUser     string        `envconfig:"METRICS_USER"`
	MetricsPassword string        `envconfig:"METRICS_PASSWORD"`
	StatsInterval   time.Duration `envconfig:"STATS_INTERVAL" default:"5m"`

	Location *time.Location `ignored:"true"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.Products = normalizeProducts(cfg.Products)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: TIMEZONE: %v", ErrConfiguration, err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	if c.SigningSecret == "" {
		problems = append(problems, "SIGNING_SECRET is required")
	}
	if c.AdminSecretDigest == "" {
		problems = append(problems, "ADMIN_SECRET_DIGEST is required")
	} else if !validDigest(c.AdminSecretDigest) {
		problems = append(problems, "ADMIN_SECRET_DIGEST must be a sha256 hex digest or a bcrypt hash")
	}

	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required for the mongo store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite store")
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER %q is not supported", c.StoreDriver))
	}

	if len(c.Products) == 0 {
		problems = append(problems, "PRODUCTS must name at least one product")
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if c.StatsInterval <= 0 {
		problems = append(problems, "STATS_INTERVAL must be positive")
	}
	if (c.MetricsUser == "") != (c.MetricsPassword == "") {
		problems = append(problems, "METRICS_USER and METRICS_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func validDigest(d string) bool {
	if hash.IsBcrypt(d) {
		return true
	}
	raw, err := hex.DecodeString(strings.TrimSpace(d))
	return err == nil && len(raw) == 32
}

func normalizeProducts(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
