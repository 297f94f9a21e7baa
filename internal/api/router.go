// Package api wires the HTTP routes and middleware of the Halyard API.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/halyard-group/halyard-web/internal/api/handlers"
	"github.com/halyard-group/halyard-web/internal/auth"
	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/internal/domain"
	"github.com/halyard-group/halyard-web/internal/ratelimit"
	"github.com/halyard-group/halyard-web/internal/utils"
	"github.com/halyard-group/halyard-web/pkg/logger"
	"github.com/halyard-group/halyard-web/pkg/version"
)

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the router needs.
type Deps struct {
	Config    *config.Config
	Auth      *auth.Service
	Validator *domain.Validator
	Inquiries handlers.InquiryService
	// DB is optional; when set /health reports database reachability
	DB Pinger
}

// SetupRouter configures and returns the main API router with all routes and middleware.
func SetupRouter(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	h := handlers.NewHandlers(deps.Inquiries, deps.Validator)
	authHandlers := NewAuthHandlers(deps.Auth, deps.Validator)

	inquiryLimiter := ratelimit.New(cfg.Inquiry.RatePerMinute, cfg.Inquiry.RateBurst)
	// Credential endpoints get a fixed, tighter budget
	sessionLimiter := ratelimit.New(10, 5)

	r := gin.Default()
	if err := r.SetTrustedProxies(splitList(cfg.Server.TrustedProxies)); err != nil {
		return nil, err
	}

	r.Use(requestIDMiddleware())

	// Session middleware must run before anything that reads the session
	r.Use(deps.Auth.SessionMiddleware())

	allowed := append(splitList(cfg.Server.AllowedOrigins), deps.Validator.AllowedOrigins()...)
	r.Use(corsMiddleware(allowed, deps.Validator))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/auth/config", authHandlers.GetAuthConfig)
		v1.GET("/domain/check", h.CheckDomain)

		session := v1.Group("/session")
		{
			session.POST("/signin", sessionLimiter.Middleware(), authHandlers.SignIn)
			session.POST("/signup", sessionLimiter.Middleware(), authHandlers.SignUp)
			session.GET("", authHandlers.GetSession)
			session.DELETE("", authHandlers.SignOut)
			session.GET("/oauth/start", authHandlers.StartOAuthFlow)
			session.GET("/oauth/callback", authHandlers.HandleOAuthCallback)
			session.GET("/events", deps.Auth.Middleware(), authHandlers.StreamEvents)
			session.GET("/profile", deps.Auth.Middleware(),
				deps.Auth.RequirePermission(auth.ResourceProfile, auth.ActionRead), authHandlers.GetProfile)
		}

		v1.POST("/inquiries", inquiryLimiter.Middleware(), h.SubmitInquiry)

		protected := v1.Group("")
		protected.Use(deps.Auth.Middleware())
		{
			protected.GET("/inquiries", deps.Auth.RequirePermission(auth.ResourceInquiries, auth.ActionRead), h.ListInquiries)
			protected.GET("/inquiries/:id", deps.Auth.RequirePermission(auth.ResourceInquiries, auth.ActionRead), h.GetInquiry)
		}
	}

	r.GET("/health", healthHandler(deps.DB))

	return r, nil
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := handlers.HealthResponse{
			Status:  "ok",
			Service: "halyard-api",
			Version: version.Version,
		}
		if db == nil {
			utils.Success(c, resp)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("Health check database ping failed: %v", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
		utils.Success(c, resp)
	}
}

// requestIDMiddleware tags every request with an ID used as the problem trace_id.
// A well-formed incoming X-Request-ID from a trusted proxy is kept.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(utils.TraceIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string, validator *domain.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Staging wildcards are not listed, so trusted origins are also accepted
		if isAllowedOrigin(origin, allowedOrigins) || (origin != "" && validator.IsSafeRedirect(origin)) {
			// Delete any existing CORS headers that might be set by proxies
			c.Writer.Header().Del("Access-Control-Allow-Origin")
			c.Writer.Header().Del("Access-Control-Allow-Credentials")
			c.Writer.Header().Del("Access-Control-Allow-Headers")
			c.Writer.Header().Del("Access-Control-Allow-Methods")

			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
			c.Writer.Header().Set("Access-Control-Expose-Headers", "Location, Retry-After, X-Request-ID")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the list of allowed origins.
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// splitList splits a comma-separated setting, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
