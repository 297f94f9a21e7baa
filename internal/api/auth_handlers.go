package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/api/handlers"
	"github.com/halyard-group/halyard-web/internal/auth"
	"github.com/halyard-group/halyard-web/internal/domain"
	"github.com/halyard-group/halyard-web/internal/utils"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// eventHeartbeat keeps idle event streams open through proxies.
const eventHeartbeat = 25 * time.Second

// AuthHandlers provides HTTP handlers for the session endpoints: password
// sign-in and sign-up, SSO, sign-out, get-session and auth-state events.
type AuthHandlers struct {
	authService *auth.Service
	validator   *domain.Validator
	heartbeat   time.Duration
}

// NewAuthHandlers creates the session handlers.
func NewAuthHandlers(authService *auth.Service, validator *domain.Validator) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		validator:   validator,
		heartbeat:   eventHeartbeat,
	}
}

// SignInRequest is the password sign-in body.
type SignInRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SignUpRequest is the sign-up body.
type SignUpRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=254"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" form:"name" binding:"max=120"`
}

// SignIn authenticates with email and password and starts a session.
// Returns 201 Created with the session; provider tokens stay on the server.
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var req SignInRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	info, err := h.authService.SignIn(c, req.Email, req.Password)
	if err != nil {
		handlers.HandleServiceError(c, err, "Session")
		return
	}

	utils.Created(c, "/api/v1/session", info)
}

// SignUp registers an account. The browser origin must be a trusted Halyard
// host served over a secure transport; otherwise 403 lists the failed checks.
// Returns 202 when the account must confirm its email, 201 when signed in.
func (h *AuthHandlers) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.authService.SignUp(c, auth.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}, handlers.RequestOrigin(c))
	if err != nil {
		handlers.HandleServiceError(c, err, "Account")
		return
	}

	if result.ConfirmationRequired {
		utils.Accepted(c, result)
		return
	}
	utils.Created(c, "/api/v1/session", result)
}

// SignOut ends the current session. Safe to call without one.
func (h *AuthHandlers) SignOut(c *gin.Context) {
	if err := h.authService.SignOut(c); err != nil {
		utils.ProblemInternalServer(c, "Failed to sign out")
		return
	}
	utils.NoContent(c)
}

// GetSession returns the current session, refreshing its token when due.
func (h *AuthHandlers) GetSession(c *gin.Context) {
	info, err := h.authService.CurrentSession(c)
	if err != nil {
		handlers.HandleServiceError(c, err, "Session")
		return
	}
	utils.Success(c, info)
}

// GetProfile returns the signed-in account as the identity provider knows it.
func (h *AuthHandlers) GetProfile(c *gin.Context) {
	profile, err := h.authService.Profile(c)
	if err != nil {
		handlers.HandleServiceError(c, err, "Profile")
		return
	}
	utils.Success(c, profile)
}

// StartOAuthFlow redirects to the SSO provider.
func (h *AuthHandlers) StartOAuthFlow(c *gin.Context) {
	h.authService.StartOAuthFlow(c)
}

// HandleOAuthCallback completes SSO and redirects back to the site with a
// login=success or error=<reason> query parameter.
func (h *AuthHandlers) HandleOAuthCallback(c *gin.Context) {
	// Read before finishing: a new sign-in replaces the session contents
	returnURL := h.authService.OAuthReturnURL(c)

	if err := h.authService.FinishOAuthFlow(c); err != nil {
		reason := "sso_failed"
		if errors.Is(err, auth.ErrInvalidOAuthState) {
			reason = "invalid_state"
		}
		logger.Warn("SSO callback failed: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, withQuery(returnURL, "error", reason))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, withQuery(returnURL, "login", "success"))
}

// GetAuthConfig returns the enabled sign-in methods and whether sign-up is
// available from the caller's origin.
func (h *AuthHandlers) GetAuthConfig(c *gin.Context) {
	response := handlers.AuthConfigResponse{
		Methods: []string{},
	}

	if h.authService.IsPasswordEnabled() {
		response.Methods = append(response.Methods, auth.MethodPassword)
		origin := handlers.RequestOrigin(c)
		response.SignUpAllowed = h.validator.Validate(origin).Valid && h.validator.IsSecureTransport(origin)
	}
	if h.authService.IsOAuthEnabled() {
		response.Methods = append(response.Methods, auth.MethodOIDC)
		response.OAuthURL = "/api/v1/session/oauth/start"
	}

	utils.Success(c, response)
}

// StreamEvents streams auth-state events for the caller's own session as
// server-sent events. The first event is a "session" snapshot; the stream
// ends after SIGNED_OUT.
func (h *AuthHandlers) StreamEvents(c *gin.Context) {
	sessionID, ok := auth.SessionID(c)
	if !ok {
		utils.ProblemAuthentication(c, "Authentication required")
		return
	}
	info, err := h.authService.CurrentSession(c)
	if err != nil {
		handlers.HandleServiceError(c, err, "Session")
		return
	}

	events := make(chan auth.Event, 8)
	unsubscribe := h.authService.OnAuthStateChange(func(e auth.Event) {
		if e.SessionID != sessionID {
			return
		}
		select {
		case events <- e:
		default:
			logger.Warn("Dropped %s event for a slow event stream", e.Type)
		}
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("session", info)
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case e := <-events:
			c.SSEvent(string(e.Type), e)
			return e.Type != auth.EventSignedOut
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// withQuery adds key=value to rawURL, keeping any existing query.
func withQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
