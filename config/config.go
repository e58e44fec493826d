package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv             string        `mapstructure:"APP_ENV"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	DatabaseDriver     string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	UploadsDir         string        `mapstructure:"UPLOADS_DIR"`
	PublicBaseURL      string        `mapstructure:"PUBLIC_BASE_URL"`
	RabbitURL          string        `mapstructure:"RABBIT_URL"`
	RabbitExchange     string        `mapstructure:"RABBIT_EXCHANGE"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"APP_ENV":              EnvDevelopment,
	"HTTP_ADDR":            ":8000",
	"DATABASE_DRIVER":      "sqlite",
	"DATABASE_URL":         "./bookstore.db",
	"JWT_SECRET":           "",
	"JWT_TTL":              "24h",
	"LOG_LEVEL":            "info",
	"UPLOADS_DIR":          "./uploads",
	"PUBLIC_BASE_URL":      "",
	"RABBIT_URL":           "",
	"RABBIT_EXCHANGE":      "bookstore.events",
	"CORS_ALLOWED_ORIGINS": []string{"*"},
	"SHUTDOWN_TIMEOUT":     "10s",
}

// Load reads .env when present, then the process environment. Errors are
// returned so main decides what is fatal.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cf.CORSAllowedOrigins = splitOrigins(cf.CORSAllowedOrigins)

	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// splitOrigins accepts both "a,b" as one entry and already split values
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}
