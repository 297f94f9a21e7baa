// Package identity defines the identity-provider capability the site delegates
// sign-in, sign-up and session persistence to, and a GoTrue implementation.
package identity

import (
	"context"
	"time"
)

// Provider is the opaque capability offered by the hosted auth backend.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

// User is the provider's view of an account.
type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	AppMetadata map[string]any `json:"app_metadata,omitempty"`
	Metadata    map[string]any `json:"user_metadata,omitempty"`
}

// AppRole returns the role assigned by the backend in app_metadata, if any.
func (u *User) AppRole() string {
	if u == nil || u.AppMetadata == nil {
		return ""
	}
	if role, ok := u.AppMetadata["role"].(string); ok {
		return role
	}
	return ""
}

// Session is an authenticated token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token expires within leeway of now.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}

// SignUpRequest carries a new account's credentials.
type SignUpRequest struct {
	Email    string
	Password string
	Metadata map[string]any
	// RedirectTo is where the confirmation email links back to
	RedirectTo string
}

// SignUpResult holds a Session when the provider auto-confirms the account,
// otherwise only the User awaiting email confirmation.
type SignUpResult struct {
	User    User
	Session *Session
}

// ConfirmationRequired reports whether the user must confirm their email first.
func (r *SignUpResult) ConfirmationRequired() bool {
	return r.Session == nil
}
