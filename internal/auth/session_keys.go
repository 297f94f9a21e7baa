package auth

import "time"

// SessionKey is a typed key for session values to prevent typos and enable refactoring.
type SessionKey string

// Session keys for storing authentication data in sessions.
const (
	// SessKeySessionID identifies the session in auth-state events
	SessKeySessionID SessionKey = "session_id"
	// SessKeyUserID stores the identity provider's user ID
	SessKeyUserID SessionKey = "user_id"
	// SessKeyEmail stores the authenticated user's email
	SessKeyEmail SessionKey = "email"
	// SessKeyRole stores the RBAC role resolved at sign-in
	SessKeyRole SessionKey = "role"
	// SessKeyAuthMethod stores the authentication method used (password/oidc)
	SessKeyAuthMethod SessionKey = "auth_method"
	// SessKeyAccessToken and SessKeyRefreshToken hold the provider token pair
	SessKeyAccessToken  SessionKey = "access_token"
	SessKeyRefreshToken SessionKey = "refresh_token"
	// SessKeyExpiresAt stores the access token expiry as Unix seconds (0 = none)
	SessKeyExpiresAt SessionKey = "expires_at"
	// SessKeyOAuthState stores the OAuth CSRF state token
	SessKeyOAuthState SessionKey = "oauth_state"
	// SessKeyFrontendURL stores the frontend URL for OAuth redirects
	SessKeyFrontendURL SessionKey = "frontend_url"
)

// Authentication methods recorded in the session.
const (
	MethodPassword = "password"
	MethodOIDC     = "oidc"
)

// SessionData contains all authentication-related session data.
type SessionData struct {
	SessionID    string
	UserID       string
	Email        string
	Role         string
	AuthMethod   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SetSessionAuth stores authentication data in the session type-safely.
func SetSessionAuth(session Session, data SessionData) {
	session.Set(string(SessKeySessionID), data.SessionID)
	session.Set(string(SessKeyUserID), data.UserID)
	session.Set(string(SessKeyEmail), data.Email)
	session.Set(string(SessKeyRole), data.Role)
	session.Set(string(SessKeyAuthMethod), data.AuthMethod)
	SetSessionTokens(session, data.AccessToken, data.RefreshToken, data.ExpiresAt)
}

// SetSessionTokens replaces the stored token pair.
func SetSessionTokens(session Session, accessToken, refreshToken string, expiresAt time.Time) {
	session.Set(string(SessKeyAccessToken), accessToken)
	session.Set(string(SessKeyRefreshToken), refreshToken)
	var exp int64
	if !expiresAt.IsZero() {
		exp = expiresAt.Unix()
	}
	session.Set(string(SessKeyExpiresAt), exp)
}

// LoadSessionData reads the authentication data, reporting false when the
// session carries no signed-in user.
func LoadSessionData(session Session) (SessionData, bool) {
	userID, ok := SessionString(session, SessKeyUserID)
	if !ok || userID == "" {
		return SessionData{}, false
	}

	data := SessionData{UserID: userID}
	data.SessionID, _ = SessionString(session, SessKeySessionID)
	data.Email, _ = SessionString(session, SessKeyEmail)
	data.Role, _ = SessionString(session, SessKeyRole)
	data.AuthMethod, _ = SessionString(session, SessKeyAuthMethod)
	data.AccessToken, _ = SessionString(session, SessKeyAccessToken)
	data.RefreshToken, _ = SessionString(session, SessKeyRefreshToken)
	if exp, ok := sessionInt64(session, SessKeyExpiresAt); ok && exp > 0 {
		data.ExpiresAt = time.Unix(exp, 0).UTC()
	}
	return data, true
}

// SessionString retrieves a string value from session by key.
func SessionString(session Session, key SessionKey) (string, bool) {
	val := session.Get(string(key))
	if val == nil {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return "", false
}

// sessionInt64 retrieves an integer value, handling int/int64 variants.
func sessionInt64(session Session, key SessionKey) (int64, bool) {
	switch v := session.Get(string(key)).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// SessionOAuthState retrieves the OAuth state token from session.
func SessionOAuthState(session Session) (string, bool) {
	return SessionString(session, SessKeyOAuthState)
}

// SessionFrontendURL retrieves the frontend URL from session.
func SessionFrontendURL(session Session) (string, bool) {
	return SessionString(session, SessKeyFrontendURL)
}

// SetSessionOAuthState stores the OAuth state token in session.
func SetSessionOAuthState(session Session, state string) {
	session.Set(string(SessKeyOAuthState), state)
}

// SetSessionFrontendURL stores the frontend URL in session.
func SetSessionFrontendURL(session Session, url string) {
	session.Set(string(SessKeyFrontendURL), url)
}

// ClearSessionOAuth clears OAuth-specific session data after callback.
func ClearSessionOAuth(session Session) {
	session.Delete(string(SessKeyOAuthState))
	session.Delete(string(SessKeyFrontendURL))
}
