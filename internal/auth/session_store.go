package auth

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/config"
)

// Session is the per-request session handle provided by gin-contrib/sessions.
type Session = sessions.Session

// newSessionStore builds the backing store for auth sessions. The memory store
// is the default: it keeps provider tokens on the server and sends the browser
// only a signed session ID.
func newSessionStore(cfg SessionConfig) (sessions.Store, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("session secret key is required")
	}

	var store sessions.Store
	if cfg.StoreType == config.StoreTypeCookie {
		// The whole session, tokens included, must fit in one 4 KB cookie
		store = cookie.NewStore([]byte(cfg.SecretKey))
	} else {
		store = memstore.NewStore([]byte(cfg.SecretKey))
	}

	store.Options(sessions.Options{
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.CookieSecure,
		HttpOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite.ToHTTP(),
	})
	return store, nil
}

// SessionMiddleware attaches the auth session to every request. It must run
// before any handler that signs users in or out.
func (s *Service) SessionMiddleware() gin.HandlerFunc {
	return sessions.Sessions(s.config.Session.CookieName, s.store)
}

// Session returns the current request's session.
func (s *Service) Session(c *gin.Context) Session {
	return sessions.Default(c)
}
