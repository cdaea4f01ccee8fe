package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Environment selects production behavior (secure cookies). NODE_ENV is
	// consulted when APP_ENV is unset.
	Environment string `env:"APP_ENV"`
	NodeEnv     string `env:"NODE_ENV"`

	// Session signing configuration
	Auth AuthConfig

	// External identity-checking service
	Identity IdentityConfig

	// Public site configuration
	Site SiteConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Route guard configuration
	Guard GuardConfig

	// Logging Configuration
	Logging LoggingConfig
}

// AuthConfig holds session signing configuration
type AuthConfig struct {
	Secret string `env:"AUTH_SECRET" validate:"required"`
}

// IdentityConfig holds the identity service endpoint configuration.
// BaseURL may be empty; login then answers with a server configuration error.
type IdentityConfig struct {
	BaseURL    string        `env:"IDENTITY_API_BASE"    validate:"omitempty,url"`
	LoginPath  string        `env:"IDENTITY_LOGIN_PATH"  envDefault:"/auth/login"`
	LogoutPath string        `env:"IDENTITY_LOGOUT_PATH"`
	APIKey     string        `env:"IDENTITY_API_KEY"`
	Timeout    time.Duration `env:"IDENTITY_TIMEOUT"     envDefault:"10s" validate:"gt=0"`
}

// SiteConfig holds public URL configuration
type SiteConfig struct {
	// PublicURL is used to build absolute redirect targets behind a reverse proxy
	PublicURL string `env:"PUBLIC_SITE_URL" validate:"omitempty,url"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port           string   `env:"PORT"                 envDefault:"8080" validate:"required,numeric"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	// MetricsEnabled exposes /metrics on the public listener
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"false"`
}

// GuardConfig holds admin route guard configuration
type GuardConfig struct {
	ProtectedPrefix string   `env:"ADMIN_PATH_PREFIX" envDefault:"/admin"                 validate:"required,startswith=/"`
	LocalHostnames  []string `env:"LOCAL_HOSTNAMES"   envDefault:"localhost,127.0.0.1" envSeparator:","`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// IsProduction reports whether cookies should be marked secure
func (c *Config) IsProduction() bool {
	environment := c.Environment
	if environment == "" {
		environment = c.NodeEnv
	}
	return strings.EqualFold(strings.TrimSpace(environment), "production")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return Parse(nil)
}

// Parse builds a Config from the given environment, or from the process
// environment when environ is nil.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// sanitize trims list entries and path separators
func (c *Config) sanitize() {
	c.Identity.BaseURL = strings.TrimSpace(c.Identity.BaseURL)
	c.Site.PublicURL = strings.TrimRight(strings.TrimSpace(c.Site.PublicURL), "/")
	c.HTTP.AllowedOrigins = compact(c.HTTP.AllowedOrigins)
	c.Guard.LocalHostnames = compact(c.Guard.LocalHostnames)
	if len(c.Guard.ProtectedPrefix) > 1 {
		c.Guard.ProtectedPrefix = strings.TrimRight(c.Guard.ProtectedPrefix, "/")
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their environment variable name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks required settings and value formats
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
