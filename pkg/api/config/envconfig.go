package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvConfig struct {
	Port        string `envconfig:"PORT" default:"3000"`
	BaseURL     string `envconfig:"BASE_URL" required:"true"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// AuthSecret signs stateless tokens. It is injected here once and
	// never read from the environment inside deep call paths.
	AuthSecret string `envconfig:"AUTH_SECRET" required:"true"`

	AccessTokenTTL int `envconfig:"ACCESS_TOKEN_TTL" default:"604800"` // 7 days
	SessionTTL     int `envconfig:"SESSION_TTL" default:"604800"`      // 7 days

	GitHubClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`

	// BootstrapAdminEmails grants the ADMIN role at account creation to
	// the listed emails (comma-separated). Everyone else gets USER.
	BootstrapAdminEmails string `envconfig:"BOOTSTRAP_ADMIN_EMAILS"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"finza"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"finza"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c *EnvConfig) IsDev() bool {
	return c.Environment != "production"
}

// AdminEmails returns the parsed bootstrap admin allowlist, lowercased.
func (c *EnvConfig) AdminEmails() []string {
	if c.BootstrapAdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.BootstrapAdminEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ValidateEnv() (*EnvConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ No .env file found")
	} else {
		log.Println("✓ Loaded .env file")
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var errors []string

	if len(cfg.AuthSecret) < 32 {
		errors = append(errors, "  ❌ AUTH_SECRET must be at least 32 characters")
	}

	if (cfg.GitHubClientID != "" && cfg.GitHubClientSecret == "") || (cfg.GitHubClientID == "" && cfg.GitHubClientSecret != "") {
		errors = append(errors, "  ❌ Both GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together")
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		errors = append(errors, "  ❌ BASE_URL must be a valid URL")
	}

	if cfg.AccessTokenTTL <= 0 || cfg.SessionTTL <= 0 {
		errors = append(errors, "  ❌ ACCESS_TOKEN_TTL and SESSION_TTL must be positive")
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return &cfg, nil
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	fmtr("  Base URL: %s\n", c.BaseURL)
	fmtr("  Auth Secret: %s\n", MaskSecret(c.AuthSecret))
	fmtr("  Database: %s@%s:%d/%s (sslmode=%s)\n", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
	fmtr("  Redis: %s (db %d)\n", c.RedisAddr, c.RedisDB)
	fmtr("  Access token TTL: %ds\n", c.AccessTokenTTL)
	fmtr("  Session TTL: %ds\n", c.SessionTTL)

	if c.GitHubClientID != "" {
		fmtr("  GitHub OAuth: ✓ Enabled\n")
		fmtr("    Client ID: %s\n", MaskSecret(c.GitHubClientID))
		fmtr("    Client Secret: %s\n", MaskSecret(c.GitHubClientSecret))
	} else {
		fmtr("  GitHub OAuth: ✗ Disabled\n")
	}
}
