package auth

import (
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/halyard-group/halyard-web/internal/config"
)

// Config combines the authentication methods and session management settings.
type Config struct {
	// Auth method: "password", "oidc", or "both"
	Method config.AuthMethod

	// OIDC/OAuth2 configuration for staff SSO
	OIDC OIDCConfig

	// Session configuration
	Session SessionConfig

	// ConfirmPath is joined onto the request origin to build sign-up confirmation links
	ConfirmPath string

	// RefreshLeeway is how close to expiry an access token is refreshed
	RefreshLeeway time.Duration

	// AdminEmails are granted the admin role regardless of provider metadata
	AdminEmails []string
}

// OIDCConfig defines OAuth2/OIDC provider settings for SSO authentication.
type OIDCConfig struct {
	// Provider URL (e.g., https://accounts.google.com)
	ProviderURL string

	// OAuth2 client credentials
	ClientID     string
	ClientSecret string

	// Redirect URL after authentication
	RedirectURL string

	// OAuth2 scopes
	Scopes []string

	// Populated by NewService
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// SessionConfig defines how user sessions are stored and secured.
type SessionConfig struct {
	// Session store type: "memory" (default) or "cookie"
	StoreType config.SessionStoreType

	// Session lifetime
	MaxAge int // seconds

	// Cookie settings
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite config.CookieSameSite

	// Secret key for session authentication
	SecretKey string
}

// NewConfig builds the auth configuration from application config.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Method: cfg.Auth.Method,
		OIDC: OIDCConfig{
			ProviderURL:  cfg.Auth.OIDCProviderURL,
			ClientID:     cfg.Auth.OIDCClientID,
			ClientSecret: cfg.Auth.OIDCClientSecret,
			RedirectURL:  cfg.Auth.OIDCRedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Session: SessionConfig{
			StoreType:      cfg.Auth.SessionStore,
			MaxAge:         cfg.Auth.SessionMaxAge,
			CookieName:     "halyard_session",
			CookiePath:     "/",
			CookieDomain:   cfg.Auth.CookieDomain,
			CookieSecure:   cfg.Environment != config.EnvDevelopment,
			CookieHTTPOnly: true,
			CookieSameSite: cfg.Auth.CookieSameSite,
			SecretKey:      cfg.Auth.SessionSecret,
		},
		ConfirmPath:   cfg.Auth.ConfirmPath,
		RefreshLeeway: cfg.Auth.RefreshLeeway,
		AdminEmails:   cfg.Auth.AdminEmails,
	}
}
