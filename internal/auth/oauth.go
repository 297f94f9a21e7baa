package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/utils"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// ErrInvalidOAuthState is returned when the callback state does not match the session.
var ErrInvalidOAuthState = errors.New("invalid state")

// StartOAuthFlow initiates the OAuth/OIDC authentication process.
func (s *Service) StartOAuthFlow(c *gin.Context) {
	if !s.IsOAuthEnabled() {
		utils.ProblemBadRequest(c, "OAuth authentication is disabled")
		return
	}

	state, err := generateState()
	if err != nil {
		logger.Error("Failed to generate OAuth state: %v", err)
		utils.ProblemInternalServer(c, "Failed to initiate OAuth flow")
		return
	}

	session := s.Session(c)
	SetSessionOAuthState(session, state)

	// Only same-site return targets are remembered, to prevent open redirects
	if frontendURL := c.Query("frontend_url"); frontendURL != "" {
		if s.validator.IsAllowedReturnURL(frontendURL) {
			SetSessionFrontendURL(session, frontendURL)
		} else {
			logger.Warn("Rejected invalid frontend_url: %s", frontendURL)
		}
	}
	if err := session.Save(); err != nil {
		logger.Error("Failed to save OAuth session: %v", err)
		utils.ProblemInternalServer(c, "Session error")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, s.config.OIDC.OAuth2Config.AuthCodeURL(state))
}

// OAuthReturnURL is where the browser goes after the callback: the stored
// frontend_url, or the canonical site origin.
func (s *Service) OAuthReturnURL(c *gin.Context) string {
	if u, ok := SessionFrontendURL(s.Session(c)); ok && u != "" {
		return u
	}
	return s.validator.CanonicalOrigin() + "/"
}

// FinishOAuthFlow completes the OAuth authentication process.
func (s *Service) FinishOAuthFlow(c *gin.Context) error {
	if !s.IsOAuthEnabled() {
		return errors.New("oauth authentication is disabled")
	}

	session := s.Session(c)

	savedState, ok := SessionOAuthState(session)
	if !ok || savedState == "" || c.Query("state") != savedState {
		return ErrInvalidOAuthState
	}
	ClearSessionOAuth(session)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	token, err := s.config.OIDC.OAuth2Config.Exchange(ctx, c.Query("code"))
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return errors.New("no id_token in response")
	}

	verifier := s.config.OIDC.Provider.Verifier(&oidc.Config{ClientID: s.config.OIDC.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Role          string `json:"role"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return fmt.Errorf("failed to parse claims: %w", err)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return errors.New("email address is not verified")
	}

	_, err = s.establish(c, SessionData{
		UserID:     claims.Sub,
		Email:      claims.Email,
		Role:       s.roleFor(claims.Email, claims.Role),
		AuthMethod: MethodOIDC,
	})
	return err
}
