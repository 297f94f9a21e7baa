package auth

import (
	"context"
	"sync"
	"time"

	"github.com/halyard-group/halyard-web/internal/identity"
)

// rotatedTokenTTL is how long a successful refresh is handed to requests
// that still carry the refresh token it rotated.
const rotatedTokenTTL = 30 * time.Second

// refreshGroup runs at most one provider refresh per refresh token.
// Requests that arrive while a refresh is in flight, or shortly after it
// succeeded, share its result. The provider rejects a reused refresh token,
// so without this a slower concurrent request would sign out a session that
// was just refreshed.
type refreshGroup struct {
	mu    sync.Mutex
	calls map[string]*refreshCall
}

type refreshCall struct {
	done    chan struct{}
	sess    *identity.Session
	err     error
	expires time.Time
}

func (g *refreshGroup) do(ctx context.Context, token string, now time.Time, fn func() (*identity.Session, error)) (*identity.Session, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*refreshCall)
	}
	for k, c := range g.calls {
		if !c.expires.IsZero() && now.After(c.expires) {
			delete(g.calls, k)
		}
	}
	if c, ok := g.calls[token]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.sess, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &refreshCall{done: make(chan struct{})}
	g.calls[token] = c
	g.mu.Unlock()

	sess, err := fn()

	g.mu.Lock()
	c.sess, c.err = sess, err
	if err != nil {
		// Failures are not shared past the requests already waiting
		delete(g.calls, token)
	} else {
		c.expires = now.Add(rotatedTokenTTL)
	}
	g.mu.Unlock()
	close(c.done)

	return sess, err
}
