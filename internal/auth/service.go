// Package auth provides the site's authentication context: sessions backed by
// the identity provider, staff SSO, auth-state events and RBAC.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/domain"
	"github.com/halyard-group/halyard-web/internal/identity"
	"github.com/halyard-group/halyard-web/internal/utils"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// Service handles authentication and authorization.
type Service struct {
	config    *Config
	provider  identity.Provider
	validator *domain.Validator
	enforcer  *casbin.Enforcer
	store     sessions.Store
	events    *Broadcaster
	now       func() time.Time
	refreshes refreshGroup
}

// SessionInfo is the client-facing view of a session. Provider tokens never
// leave the server.
type SessionInfo struct {
	SessionID  string     `json:"session_id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	AuthMethod string     `json:"auth_method"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// IsPasswordEnabled reports whether email/password authentication is enabled.
func (s *Service) IsPasswordEnabled() bool {
	return s.config.Method.SupportsPassword()
}

// IsOAuthEnabled reports whether OAuth/OIDC authentication is enabled.
func (s *Service) IsOAuthEnabled() bool {
	return s.config.Method.SupportsOIDC()
}

// NewService creates a new authentication service. The provider may be nil
// when password authentication is disabled.
func NewService(cfg *Config, provider identity.Provider, validator *domain.Validator) (*Service, error) {
	if validator == nil {
		return nil, errors.New("domain validator is required")
	}
	if cfg.Method.SupportsPassword() && provider == nil {
		return nil, errors.New("password authentication requires an identity provider")
	}

	s := &Service{
		config:    cfg,
		provider:  provider,
		validator: validator,
		events:    NewBroadcaster(),
		now:       time.Now,
	}

	// Initialize OIDC if configured
	if cfg.Method.SupportsOIDC() {
		if err := s.initializeOIDC(); err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC: %w", err)
		}
	}

	store, err := newSessionStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	s.store = store

	enforcer, err := initializeRBAC()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Casbin: %w", err)
	}
	s.enforcer = enforcer

	return s, nil
}

// initializeOIDC configures the OIDC provider for OAuth authentication.
func (s *Service) initializeOIDC() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, s.config.OIDC.ProviderURL)
	if err != nil {
		return err
	}

	s.config.OIDC.Provider = provider
	s.config.OIDC.OAuth2Config = &oauth2.Config{
		ClientID:     s.config.OIDC.ClientID,
		ClientSecret: s.config.OIDC.ClientSecret,
		RedirectURL:  s.config.OIDC.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       s.config.OIDC.Scopes,
	}
	return nil
}

// initializeRBAC sets up role-based access control using Casbin.
func initializeRBAC() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	// In-memory policy storage, no adapter needed
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, p := range defaultPolicies {
		if _, err := enforcer.AddPolicy(p); err != nil {
			return nil, fmt.Errorf("failed to add RBAC policy %v: %w", p, err)
		}
	}
	return enforcer, nil
}

// Can reports whether role may perform act on obj.
func (s *Service) Can(role string, obj Resource, act Action) (bool, error) {
	return s.enforcer.Enforce(role, string(obj), string(act))
}

// roleFor resolves the RBAC role from provider metadata and the admin allow-list.
func (s *Service) roleFor(email, providerRole string) string {
	if providerRole == RoleAdmin {
		return RoleAdmin
	}
	for _, admin := range s.config.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return RoleAdmin
		}
	}
	return RoleMember
}

// Middleware returns the Gin middleware for authentication enforcement.
// It runs CurrentSession, so near-expiry tokens are refreshed on the way in.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := s.CurrentSession(c)
		if err != nil {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) && appErr.Code == apperrors.CodeUnauthorized {
				utils.ProblemAuthentication(c, appErr.Message)
			} else {
				logger.Error("Failed to load session: %v", err)
				utils.ProblemInternalServer(c, "Session error")
			}
			c.Abort()
			return
		}

		SetUserContext(c, UserContext{
			SessionID:  info.SessionID,
			UserID:     info.UserID,
			Email:      info.Email,
			Role:       info.Role,
			AuthMethod: info.AuthMethod,
		})
		c.Next()
	}
}

// RequirePermission returns middleware that enforces role-based access control.
func (s *Service) RequirePermission(obj Resource, act Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := UserRole(c)
		if !ok {
			logger.Error("RequirePermission: user role not found in context")
			utils.ProblemAuthentication(c, "Authentication required")
			c.Abort()
			return
		}

		allowed, err := s.Can(role, obj, act)
		if err != nil {
			logger.Error("Permission check failed for %s %s:%s: %v", role, obj, act, err)
			utils.ProblemInternalServer(c, "Permission check failed")
			c.Abort()
			return
		}
		if !allowed {
			utils.ProblemForbidden(c, "Insufficient permissions", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// OnAuthStateChange registers fn for every auth-state event and returns a
// function that unregisters it.
func (s *Service) OnAuthStateChange(fn Listener) (unsubscribe func()) {
	return s.events.Subscribe(fn)
}

func (s *Service) emit(t EventType, data SessionData) {
	s.events.Publish(Event{
		Type:      t,
		SessionID: data.SessionID,
		UserID:    data.UserID,
		Method:    data.AuthMethod,
		At:        s.now().UTC(),
	})
}

// establish replaces whatever the session held with a freshly identified
// sign-in and emits SIGNED_IN.
func (s *Service) establish(c *gin.Context, data SessionData) (*SessionInfo, error) {
	session := s.Session(c)
	session.Clear()

	data.SessionID = uuid.NewString()
	SetSessionAuth(session, data)
	if err := session.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.Info("User %s signed in via %s", data.UserID, data.AuthMethod)
	s.emit(EventSignedIn, data)
	return data.info(), nil
}

// clear drops the session and emits SIGNED_OUT when a user was signed in.
func (s *Service) clear(c *gin.Context, session Session, data SessionData, signedIn bool) error {
	session.Clear()
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if signedIn {
		s.emit(EventSignedOut, data)
	}
	return nil
}

func (d SessionData) info() *SessionInfo {
	info := &SessionInfo{
		SessionID:  d.SessionID,
		UserID:     d.UserID,
		Email:      d.Email,
		Role:       d.Role,
		AuthMethod: d.AuthMethod,
	}
	if !d.ExpiresAt.IsZero() {
		exp := d.ExpiresAt
		info.ExpiresAt = &exp
	}
	return info
}

// generateState generates a cryptographically secure random state for OAuth2 CSRF protection.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
