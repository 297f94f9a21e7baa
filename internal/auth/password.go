package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/identity"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// SignUpRequest carries a new account's details.
type SignUpRequest struct {
	Email    string
	Password string
	Name     string
}

// SignUpResult reports whether the new account still has to confirm its email.
// Session is set when the provider confirmed the account immediately.
type SignUpResult struct {
	ConfirmationRequired bool         `json:"confirmation_required"`
	Email                string       `json:"email"`
	Session              *SessionInfo `json:"session,omitempty"`
}

// SignIn authenticates with the identity provider and starts a session.
func (s *Service) SignIn(c *gin.Context, email, password string) (*SessionInfo, error) {
	if !s.IsPasswordEnabled() {
		return nil, apperrors.Unavailable("Password sign-in is disabled")
	}

	sess, err := s.provider.SignInWithPassword(c.Request.Context(), email, password)
	if err != nil {
		return nil, providerError("sign in", err)
	}

	return s.establish(c, s.passwordSessionData(sess))
}

// SignUp registers a new account. It is only allowed from an origin that
// passes domain validation over a secure transport, because the provider's
// confirmation email links back to that origin.
func (s *Service) SignUp(c *gin.Context, req SignUpRequest, origin string) (*SignUpResult, error) {
	if !s.IsPasswordEnabled() {
		return nil, apperrors.Unavailable("Sign-up is disabled")
	}

	report := s.validator.Validate(origin)
	secure := s.validator.IsSecureTransport(origin)
	if !report.Valid || !secure {
		appErr := apperrors.Forbidden("Sign-up is not allowed from this origin").
			WithInternal("origin %q environment %s", origin, report.Environment)
		for _, m := range report.Mismatches() {
			appErr.WithIssue(m.Name, fmt.Sprintf("expected %s, got %s", m.Expected, m.Actual))
		}
		if !secure {
			appErr.WithIssue("transport", "a secure (https) connection is required")
		}
		logger.Warn("Rejected sign-up from origin %q: %d failed checks", origin, len(appErr.Issues))
		return nil, appErr
	}

	var metadata map[string]any
	if req.Name != "" {
		metadata = map[string]any{"full_name": req.Name}
	}

	result, err := s.provider.SignUp(c.Request.Context(), identity.SignUpRequest{
		Email:      req.Email,
		Password:   req.Password,
		Metadata:   metadata,
		RedirectTo: s.validator.RedirectURL(origin, s.config.ConfirmPath),
	})
	if err != nil {
		return nil, signUpError(err)
	}

	if result.ConfirmationRequired() {
		logger.Info("Sign-up for user %s awaits email confirmation", result.User.ID)
		return &SignUpResult{ConfirmationRequired: true, Email: result.User.Email}, nil
	}

	info, err := s.establish(c, s.passwordSessionData(result.Session))
	if err != nil {
		return nil, err
	}
	return &SignUpResult{Email: info.Email, Session: info}, nil
}

// SignOut revokes the provider session when there is one and always clears
// the local session. Signing out without a session is not an error.
func (s *Service) SignOut(c *gin.Context) error {
	session := s.Session(c)
	data, signedIn := LoadSessionData(session)

	if signedIn && data.AccessToken != "" && s.provider != nil {
		if err := s.provider.SignOut(c.Request.Context(), data.AccessToken); err != nil {
			logger.Warn("Identity provider sign-out failed for user %s: %v", data.UserID, err)
		}
	}

	if err := s.clear(c, session, data, signedIn); err != nil {
		logger.Error("Failed to save session during sign-out: %v", err)
		return err
	}
	if signedIn {
		logger.Info("User %s signed out", data.UserID)
	}
	return nil
}

// CurrentSession returns the signed-in session. Password sessions whose access
// token expires within the refresh leeway are refreshed first; a failed
// refresh ends the session. Concurrent requests refreshing the same token
// share one provider call.
func (s *Service) CurrentSession(c *gin.Context) (*SessionInfo, error) {
	session := s.Session(c)
	data, ok := LoadSessionData(session)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	if !s.needsRefresh(data) {
		return data.info(), nil
	}

	ctx := c.Request.Context()
	refreshed, err := s.refreshes.do(ctx, data.RefreshToken, s.now(), func() (*identity.Session, error) {
		return s.provider.Refresh(ctx, data.RefreshToken)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("token refresh interrupted: %w", err)
	}
	if err != nil {
		logger.Warn("Token refresh failed for user %s: %v", data.UserID, err)
		if clearErr := s.clear(c, session, data, true); clearErr != nil {
			logger.Error("Failed to clear session after refresh failure: %v", clearErr)
		}
		return nil, apperrors.Unauthorized("Session expired, please sign in again").Wrap(err)
	}

	next := s.passwordSessionData(refreshed)
	next.SessionID = data.SessionID
	userChanged := next.Email != data.Email || next.Role != data.Role

	SetSessionAuth(session, next)
	if err := session.Save(); err != nil {
		return nil, fmt.Errorf("failed to save refreshed session: %w", err)
	}

	logger.Debug("Refreshed access token for user %s", next.UserID)
	s.emit(EventTokenRefreshed, next)
	if userChanged {
		s.emit(EventUserUpdated, next)
	}
	return next.info(), nil
}

func (s *Service) needsRefresh(data SessionData) bool {
	if data.AuthMethod != MethodPassword || data.RefreshToken == "" || s.provider == nil {
		return false
	}
	current := identity.Session{ExpiresAt: data.ExpiresAt}
	return current.Expired(s.now(), s.config.RefreshLeeway)
}

func (s *Service) passwordSessionData(sess *identity.Session) SessionData {
	return SessionData{
		UserID:       sess.User.ID,
		Email:        sess.User.Email,
		Role:         s.roleFor(sess.User.Email, sess.User.AppRole()),
		AuthMethod:   MethodPassword,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
	}
}

// providerError maps identity-provider failures onto client-safe errors.
func providerError(op string, err error) error {
	apiErr, ok := identity.AsAPIError(err)
	switch {
	case ok && apiErr.IsInvalidCredentials():
		return apperrors.Unauthorized("Invalid email or password").Wrap(err)
	case ok && apiErr.IsRateLimited():
		return apperrors.RateLimited("Too many attempts, please try again later").Wrap(err)
	case errors.Is(err, identity.ErrNotConfigured):
		return apperrors.Unavailable("Authentication is not configured").Wrap(err)
	default:
		return apperrors.Upstream("Authentication service is unavailable").
			WithInternal("%s: %v", op, err).
			Wrap(err)
	}
}

func signUpError(err error) error {
	apiErr, ok := identity.AsAPIError(err)
	if !ok {
		return providerError("sign up", err)
	}
	switch {
	case apiErr.IsRateLimited():
		return providerError("sign up", err)
	case apiErr.Code == "user_already_exists" || apiErr.Code == "email_exists":
		return apperrors.Duplicate("An account with this email already exists").Wrap(err)
	case apiErr.Code == "weak_password":
		msg := apiErr.Message
		if msg == "" {
			msg = "Password is too weak"
		}
		return apperrors.InvalidField("password", msg).Wrap(err)
	case apiErr.StatusCode == http.StatusUnprocessableEntity || apiErr.StatusCode == http.StatusBadRequest:
		msg := apiErr.Message
		if msg == "" {
			msg = "Sign-up was rejected"
		}
		return apperrors.InvalidInput(msg).Wrap(err)
	default:
		return providerError("sign up", err)
	}
}
