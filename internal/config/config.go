// Package config handles application configuration management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultSessionSecret is rejected in production.
const defaultSessionSecret = "halyard-dev-secret-change-in-production"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Identity IdentityConfig
	Domain   DomainConfig
	Email    EmailConfig
	Inquiry  InquiryConfig
	// LogLevel controls logging verbosity (4=info, 5=debug)
	LogLevel    int
	Environment Environment
}

// ServerConfig holds HTTP server and CORS configuration.
type ServerConfig struct {
	Address string
	// AllowedOrigins is a comma-separated list of extra origins allowed for CORS
	AllowedOrigins string
	// TrustedProxies is a comma-separated list of proxy CIDRs gin may trust for client IPs
	TrustedProxies string
}

// DatabaseConfig holds MySQL database connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// AuthConfig holds authentication and session configuration.
type AuthConfig struct {
	// Method specifies authentication type: "password", "oidc", or "both"
	Method AuthMethod

	// SessionSecret must be changed from default in production
	SessionSecret string
	SessionStore  SessionStoreType
	SessionMaxAge int

	CookieDomain   string
	CookieSameSite CookieSameSite

	// ConfirmPath is appended to the request origin for sign-up confirmation links
	ConfirmPath string
	// RefreshLeeway is how close to expiry an access token gets refreshed
	RefreshLeeway time.Duration
	// AdminEmails are granted the admin role regardless of provider metadata
	AdminEmails []string

	OIDCProviderURL  string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// IdentityConfig points at the hosted GoTrue (Supabase Auth) instance.
type IdentityConfig struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// DomainConfig lists the hosts the site is expected to be served from.
type DomainConfig struct {
	ProductionDomain string
	StagingHosts     []string
	DevelopmentHosts []string
	SiteURL          string
	RequireHTTPS     bool
}

// EmailConfig selects and configures the transactional email provider.
type EmailConfig struct {
	Provider EmailProvider
	Enabled  bool

	MailgunDomain string
	MailgunAPIKey string
	MailgunEU     bool

	ResendAPIKey string
	ResendURL    string

	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// InquiryConfig controls the inquiry email function.
type InquiryConfig struct {
	Recipient     string
	Acknowledge   bool
	MaxAttempts   int
	RetryInterval time.Duration
	// RatePerMinute and RateBurst throttle submissions per client
	RatePerMinute int
	RateBurst     int
	// HashKey keys the client IP digest stored with each inquiry
	HashKey string
}

// Load reads configuration from the environment, an optional .env file and
// an optional YAML domain file, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(getEnv("HALYARD_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("HALYARD_SERVER_ADDRESS", ":8080"),
			AllowedOrigins: getEnv("HALYARD_ALLOWED_ORIGINS", ""),
			TrustedProxies: getEnv("HALYARD_TRUSTED_PROXIES", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("HALYARD_DB_HOST", "localhost"),
			Port:     getEnvInt("HALYARD_DB_PORT", 3306),
			User:     getEnv("HALYARD_DB_USER", "halyard"),
			Password: getEnv("HALYARD_DB_PASSWORD", "halyard"),
			Database: getEnv("HALYARD_DB_NAME", "halyard"),
		},
		Auth: AuthConfig{
			Method:           AuthMethod(getEnv("HALYARD_AUTH_METHOD", string(AuthMethodPassword))),
			SessionSecret:    getEnv("HALYARD_SESSION_SECRET", defaultSessionSecret),
			SessionStore:     SessionStoreType(getEnv("HALYARD_SESSION_STORE", string(StoreTypeMemory))),
			SessionMaxAge:    getEnvInt("HALYARD_SESSION_MAX_AGE", 7*24*3600),
			CookieDomain:     getEnv("HALYARD_COOKIE_DOMAIN", ""),
			CookieSameSite:   CookieSameSite(getEnv("HALYARD_COOKIE_SAMESITE", string(SameSiteLax))),
			ConfirmPath:      getEnv("HALYARD_CONFIRM_PATH", "/auth/confirmed"),
			RefreshLeeway:    getEnvDuration("HALYARD_REFRESH_LEEWAY", time.Minute),
			AdminEmails:      getEnvList("HALYARD_ADMIN_EMAILS"),
			OIDCProviderURL:  getEnv("HALYARD_OIDC_PROVIDER_URL", ""),
			OIDCClientID:     getEnv("HALYARD_OIDC_CLIENT_ID", ""),
			OIDCClientSecret: getEnv("HALYARD_OIDC_CLIENT_SECRET", ""),
			OIDCRedirectURL:  getEnv("HALYARD_OIDC_REDIRECT_URL", "http://localhost:8080/api/v1/session/oauth/callback"),
		},
		Identity: IdentityConfig{
			URL:     strings.TrimRight(getEnv("HALYARD_IDENTITY_URL", ""), "/"),
			AnonKey: getEnv("HALYARD_IDENTITY_ANON_KEY", ""),
			Timeout: getEnvDuration("HALYARD_IDENTITY_TIMEOUT", 10*time.Second),
		},
		Domain: DomainConfig{
			ProductionDomain: getEnv("HALYARD_PRODUCTION_DOMAIN", "halyard.group"),
			StagingHosts:     getEnvList("HALYARD_STAGING_HOSTS"),
			DevelopmentHosts: getEnvList("HALYARD_DEVELOPMENT_HOSTS"),
			SiteURL:          getEnv("HALYARD_SITE_URL", ""),
			RequireHTTPS:     getEnvBool("HALYARD_REQUIRE_HTTPS", true),
		},
		Email: EmailConfig{
			Provider:      EmailProvider(getEnv("HALYARD_EMAIL_PROVIDER", string(EmailProviderNone))),
			Enabled:       getEnvBool("HALYARD_EMAIL_ENABLED", true),
			MailgunDomain: getEnv("HALYARD_MAILGUN_DOMAIN", ""),
			MailgunAPIKey: getEnv("HALYARD_MAILGUN_API_KEY", ""),
			MailgunEU:     getEnvBool("HALYARD_MAILGUN_EU", false),
			ResendAPIKey:  getEnv("HALYARD_RESEND_API_KEY", ""),
			ResendURL:     getEnv("HALYARD_RESEND_URL", "https://api.resend.com"),
			FromEmail:     getEnv("HALYARD_EMAIL_FROM_ADDRESS", "no-reply@halyard.group"),
			FromName:      getEnv("HALYARD_EMAIL_FROM_NAME", "Halyard"),
			Timeout:       getEnvDuration("HALYARD_EMAIL_TIMEOUT", 30*time.Second),
		},
		Inquiry: InquiryConfig{
			Recipient:     getEnv("HALYARD_INQUIRY_RECIPIENT", "hello@halyard.group"),
			Acknowledge:   getEnvBool("HALYARD_INQUIRY_ACKNOWLEDGE", false),
			MaxAttempts:   getEnvInt("HALYARD_INQUIRY_MAX_ATTEMPTS", 5),
			RetryInterval: getEnvDuration("HALYARD_INQUIRY_RETRY_INTERVAL", 15*time.Minute),
			RatePerMinute: getEnvInt("HALYARD_INQUIRY_RATE_PER_MINUTE", 5),
			RateBurst:     getEnvInt("HALYARD_INQUIRY_RATE_BURST", 3),
			HashKey:       getEnv("HALYARD_INQUIRY_HASH_KEY", ""),
		},
		LogLevel:    getEnvInt("HALYARD_LOG_LEVEL", 4),
		Environment: Environment(getEnv("HALYARD_ENV", string(EnvDevelopment))),
	}

	if path := getEnv("HALYARD_DOMAINS_FILE", ""); path != "" {
		if err := cfg.Domain.LoadFile(path); err != nil {
			return nil, err
		}
	}

	// Production trusts localhost only when development hosts are listed
	if cfg.Environment.IsProduction() && cfg.Domain.DevelopmentHosts == nil {
		cfg.Domain.DevelopmentHosts = []string{}
	}

	if cfg.Inquiry.HashKey == "" {
		cfg.Inquiry.HashKey = cfg.Auth.SessionSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enum values and production-only requirements.
func (c *Config) Validate() error {
	if !c.Environment.IsValid() {
		return fmt.Errorf("invalid HALYARD_ENV %q", c.Environment)
	}
	if !c.Auth.Method.IsValid() {
		return fmt.Errorf("invalid HALYARD_AUTH_METHOD %q", c.Auth.Method)
	}
	if !c.Auth.CookieSameSite.IsValid() {
		return fmt.Errorf("invalid HALYARD_COOKIE_SAMESITE %q", c.Auth.CookieSameSite)
	}
	if !c.Auth.SessionStore.IsValid() {
		return fmt.Errorf("invalid HALYARD_SESSION_STORE %q", c.Auth.SessionStore)
	}
	if !c.Email.Provider.IsValid() {
		return fmt.Errorf("invalid HALYARD_EMAIL_PROVIDER %q", c.Email.Provider)
	}
	if c.Domain.ProductionDomain == "" {
		return errors.New("HALYARD_PRODUCTION_DOMAIN is required")
	}
	if c.Auth.Method.SupportsPassword() && c.Identity.URL == "" {
		return errors.New("HALYARD_IDENTITY_URL is required for password authentication")
	}
	if c.Auth.Method.SupportsOIDC() && (c.Auth.OIDCProviderURL == "" || c.Auth.OIDCClientID == "") {
		return errors.New("HALYARD_OIDC_PROVIDER_URL and HALYARD_OIDC_CLIENT_ID are required for OIDC authentication")
	}
	if c.Inquiry.MaxAttempts < 1 {
		return fmt.Errorf("HALYARD_INQUIRY_MAX_ATTEMPTS must be at least 1, got %d", c.Inquiry.MaxAttempts)
	}
	if c.Environment.IsProduction() {
		if c.Auth.SessionSecret == defaultSessionSecret {
			return errors.New("HALYARD_SESSION_SECRET must be set in production")
		}
		if c.Email.Provider == EmailProviderNone {
			return errors.New("HALYARD_EMAIL_PROVIDER must be set in production")
		}
	}
	return nil
}

// DSN returns the go-sql-driver/mysql connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// getEnv returns the value of the environment variable key, or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
