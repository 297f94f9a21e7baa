package config

import "net/http"

// AuthMethod represents the authentication method configuration
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password"
	AuthMethodOIDC     AuthMethod = "oidc"
	AuthMethodBoth     AuthMethod = "both"
)

func (a AuthMethod) IsValid() bool {
	switch a {
	case AuthMethodPassword, AuthMethodOIDC, AuthMethodBoth:
		return true
	}
	return false
}

// SupportsPassword reports whether sign-in through the identity provider's password grant is enabled.
func (a AuthMethod) SupportsPassword() bool {
	return a == AuthMethodPassword || a == AuthMethodBoth
}

func (a AuthMethod) SupportsOIDC() bool {
	return a == AuthMethodOIDC || a == AuthMethodBoth
}

// Environment represents the runtime environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}

func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// CookieSameSite represents cookie SameSite policy
type CookieSameSite string

const (
	SameSiteStrict CookieSameSite = "strict"
	SameSiteLax    CookieSameSite = "lax"
	SameSiteNone   CookieSameSite = "none"
)

func (c CookieSameSite) IsValid() bool {
	switch c {
	case SameSiteStrict, SameSiteLax, SameSiteNone:
		return true
	}
	return false
}

func (c CookieSameSite) ToHTTP() http.SameSite {
	switch c {
	case SameSiteStrict:
		return http.SameSiteStrictMode
	case SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SessionStoreType represents the session storage backend
type SessionStoreType string

const (
	StoreTypeMemory SessionStoreType = "memory"
	StoreTypeCookie SessionStoreType = "cookie"
)

func (s SessionStoreType) IsValid() bool {
	return s == StoreTypeMemory || s == StoreTypeCookie
}

// EmailProvider selects the transactional email backend
type EmailProvider string

const (
	EmailProviderNone    EmailProvider = "none"
	EmailProviderMailgun EmailProvider = "mailgun"
	EmailProviderResend  EmailProvider = "resend"
)

func (p EmailProvider) IsValid() bool {
	switch p {
	case EmailProviderNone, EmailProviderMailgun, EmailProviderResend:
		return true
	}
	return false
}
