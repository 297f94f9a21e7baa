package auth

import "github.com/gin-gonic/gin"

// ContextKey is a typed key for context values.
type ContextKey string

// Context keys for storing user information in request context.
const (
	CtxKeySessionID  ContextKey = "session_id"
	CtxKeyUserID     ContextKey = "user_id"
	CtxKeyEmail      ContextKey = "email"
	CtxKeyUserRole   ContextKey = "user_role"
	CtxKeyAuthMethod ContextKey = "auth_method"
)

// UserContext contains all user-related context data for type-safe access.
type UserContext struct {
	SessionID  string
	UserID     string
	Email      string
	Role       string
	AuthMethod string
}

// SetUserContext stores user context data in a type-safe manner.
func SetUserContext(c *gin.Context, ctx UserContext) {
	c.Set(string(CtxKeySessionID), ctx.SessionID)
	c.Set(string(CtxKeyUserID), ctx.UserID)
	c.Set(string(CtxKeyEmail), ctx.Email)
	c.Set(string(CtxKeyUserRole), ctx.Role)
	c.Set(string(CtxKeyAuthMethod), ctx.AuthMethod)
}

// UserID retrieves the user ID from context.
func UserID(c *gin.Context) (string, bool) {
	return getContextString(c, CtxKeyUserID)
}

// UserRole retrieves the user role from context in a type-safe manner.
func UserRole(c *gin.Context) (string, bool) {
	return getContextString(c, CtxKeyUserRole)
}

// SessionID retrieves the session ID from context.
func SessionID(c *gin.Context) (string, bool) {
	return getContextString(c, CtxKeySessionID)
}

// getContextString safely retrieves a non-empty string from context.
func getContextString(c *gin.Context, key ContextKey) (string, bool) {
	val, exists := c.Get(string(key))
	if !exists {
		return "", false
	}
	if s, ok := val.(string); ok && s != "" {
		return s, true
	}
	return "", false
}
