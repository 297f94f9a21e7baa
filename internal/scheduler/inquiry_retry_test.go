package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/halyard-group/halyard-web/internal/services"
)

type countingRetrier struct {
	calls atomic.Int32
	limit atomic.Int32
	err   error
}

func (r *countingRetrier) RetryFailed(_ context.Context, limit int) (services.RetryReport, error) {
	r.calls.Add(1)
	r.limit.Store(int32(limit))
	if r.err != nil {
		return services.RetryReport{}, r.err
	}
	return services.RetryReport{Attempted: 1, Delivered: 1}, nil
}

func TestInquiryRetryServiceRunsImmediatelyAndOnTick(t *testing.T) {
	retrier := &countingRetrier{}
	svc := NewInquiryRetryService(retrier, 10*time.Millisecond)

	svc.Start()
	assert.Eventually(t, func() bool { return retrier.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	svc.Stop()
	stopped := retrier.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, retrier.calls.Load(), "no passes after Stop")
	assert.Equal(t, int32(retryBatchSize), retrier.limit.Load())
}

func TestInquiryRetryServiceKeepsRunningAfterErrors(t *testing.T) {
	retrier := &countingRetrier{err: errors.New("database unavailable")}
	svc := NewInquiryRetryService(retrier, 10*time.Millisecond)

	svc.Start()
	defer svc.Stop()
	assert.Eventually(t, func() bool { return retrier.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestInquiryRetryServiceStopIsIdempotent(t *testing.T) {
	svc := NewInquiryRetryService(&countingRetrier{}, time.Hour)
	svc.Start()

	assert.NotPanics(t, func() {
		svc.Stop()
		svc.Stop()
	})
}

func TestNewInquiryRetryServiceDefaultsInterval(t *testing.T) {
	svc := NewInquiryRetryService(&countingRetrier{}, 0)
	assert.Equal(t, 15*time.Minute, svc.interval)
}

// blockingRetrier holds every pass until its context ends.
type blockingRetrier struct {
	started chan struct{}
	ctxErr  atomic.Value
}

func (r *blockingRetrier) RetryFailed(ctx context.Context, _ int) (services.RetryReport, error) {
	close(r.started)
	<-ctx.Done()
	r.ctxErr.Store(ctx.Err())
	return services.RetryReport{}, ctx.Err()
}

func TestInquiryRetryServiceStartDoesNotBlockAndStopCancelsPass(t *testing.T) {
	retrier := &blockingRetrier{started: make(chan struct{})}
	svc := NewInquiryRetryService(retrier, time.Hour)

	returned := make(chan struct{})
	go func() {
		svc.Start()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Start blocked on the first retry pass")
	}

	select {
	case <-retrier.started:
	case <-time.After(time.Second):
		t.Fatal("first retry pass never ran")
	}

	stopped := make(chan struct{})
	go func() {
		svc.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop waited for the full pass timeout")
	}
	assert.ErrorIs(t, retrier.ctxErr.Load().(error), context.Canceled)
}
