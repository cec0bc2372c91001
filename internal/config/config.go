package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds settings for both halves of the binary: the console (API
// client and session) and the sandbox backend.
type Config struct {
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	APIBaseURL      string        `mapstructure:"API_BASE_URL"`
	SessionFile     string        `mapstructure:"SESSION_FILE"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	AlertsTransport string        `mapstructure:"ALERTS_TRANSPORT"`

	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	QRTTL          time.Duration `mapstructure:"QR_TTL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	SandboxSeed    int64         `mapstructure:"SANDBOX_SEED"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_BASE_URL", "http://localhost:8000/api/v1")
	v.SetDefault("SESSION_FILE", "")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("ALERTS_TRANSPORT", "sse")
	v.SetDefault("PORT", "8000")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TOKEN_TTL", "8h")
	v.SetDefault("QR_TTL", "24h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SANDBOX_SEED", 42)
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "API_BASE_URL", "SESSION_FILE", "REQUEST_TIMEOUT",
		"ALERTS_TRANSPORT", "PORT", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"AUTH_SIGNING_KEY", "TOKEN_TTL", "QR_TTL", "CORS_ORIGINS", "SANDBOX_SEED",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "hms", "session.json")
	}
	return filepath.Join(home, ".hms", "session.json")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks the console settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL scheme must be http or https, got %q", u.Scheme)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.AlertsTransport != "sse" && c.AlertsTransport != "ws" {
		return fmt.Errorf("ALERTS_TRANSPORT must be \"sse\" or \"ws\", got %q", c.AlertsTransport)
	}
	return nil
}

// ValidateSandbox checks the sandbox backend settings. Outside development a
// signing key of at least 32 bytes is required.
func (c *Config) ValidateSandbox() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if !c.IsDev() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes when ENV=%q", c.Env)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.QRTTL <= 0 {
		return fmt.Errorf("QR_TTL must be positive, got %s", c.QRTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// SigningKey returns the sandbox token signing key, falling back to a fixed
// development key.
func (c *Config) SigningKey() []byte {
	if c.AuthSigningKey != "" {
		return []byte(c.AuthSigningKey)
	}
	return []byte("hms-sandbox-development-signing-key")
}
