package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/identity"
)

// Profile is the signed-in account. For password sessions it is read live
// from the identity provider; SSO sessions only have what the ID token gave.
type Profile struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	Role        string     `json:"role"`
	AuthMethod  string     `json:"auth_method"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Profile returns the current user's account details.
func (s *Service) Profile(c *gin.Context) (*Profile, error) {
	info, err := s.CurrentSession(c)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		UserID:     info.UserID,
		Email:      info.Email,
		Role:       info.Role,
		AuthMethod: info.AuthMethod,
	}

	data, _ := LoadSessionData(s.Session(c))
	if data.AuthMethod != MethodPassword || data.AccessToken == "" || s.provider == nil {
		return p, nil
	}

	user, err := s.provider.GetUser(c.Request.Context(), data.AccessToken)
	if err != nil {
		if apiErr, ok := identity.AsAPIError(err); ok && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, apperrors.Unauthorized("Session expired, please sign in again").Wrap(err)
		}
		return nil, providerError("get user", err)
	}

	if user.Email != "" {
		p.Email = user.Email
	}
	p.ConfirmedAt = user.ConfirmedAt
	if name, ok := user.Metadata["full_name"].(string); ok {
		p.Name = name
	}
	return p, nil
}
