package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-group/halyard-web/internal/identity"
)

func TestRefreshGroup(t *testing.T) {
	rotated := &identity.Session{AccessToken: "access-2", RefreshToken: "refresh-2"}
	failure := errors.New("invalid_grant")

	tests := []struct {
		name      string
		result    *identity.Session
		err       error
		secondAt  time.Duration
		wantCalls int
	}{
		{"success shared within ttl", rotated, nil, rotatedTokenTTL - time.Second, 1},
		{"success expires after ttl", rotated, nil, rotatedTokenTTL + time.Second, 2},
		{"failure not shared", nil, failure, time.Second, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g refreshGroup
			calls := 0
			fn := func() (*identity.Session, error) {
				calls++
				return tt.result, tt.err
			}

			sess, err := g.do(context.Background(), "refresh-1", testNow, fn)
			assert.Equal(t, tt.result, sess)
			assert.Equal(t, tt.err, err)

			sess, err = g.do(context.Background(), "refresh-1", testNow.Add(tt.secondAt), fn)
			assert.Equal(t, tt.result, sess)
			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRefreshGroupSeparatesTokens(t *testing.T) {
	var g refreshGroup
	calls := 0
	fn := func() (*identity.Session, error) {
		calls++
		return &identity.Session{}, nil
	}

	_, err := g.do(context.Background(), "refresh-a", testNow, fn)
	require.NoError(t, err)
	_, err = g.do(context.Background(), "refresh-b", testNow, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRefreshGroupWaiterHonoursContext(t *testing.T) {
	var g refreshGroup
	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = g.do(context.Background(), "refresh-1", testNow, func() (*identity.Session, error) {
			close(entered)
			<-release
			return &identity.Session{}, nil
		})
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.do(ctx, "refresh-1", testNow, func() (*identity.Session, error) {
		t.Error("waiter must not refresh again")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
