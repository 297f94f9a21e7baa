// Package scheduler provides background task scheduling services for the Halyard API.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/halyard-group/halyard-web/internal/services"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// retryBatchSize caps how many inquiries one run claims.
const retryBatchSize = 50

// runTimeout bounds a single retry run.
const runTimeout = 5 * time.Minute

// Retrier resends inquiry notifications that were not delivered.
type Retrier interface {
	RetryFailed(ctx context.Context, limit int) (services.RetryReport, error)
}

// InquiryRetryService periodically retries failed inquiry notifications.
type InquiryRetryService struct {
	retrier  Retrier
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// ctx is cancelled by Stop so a pass in flight ends early
	ctx    context.Context
	cancel context.CancelFunc
}

// NewInquiryRetryService creates a retry service that runs every interval.
// The service must be started with [InquiryRetryService.Start].
func NewInquiryRetryService(retrier Retrier, interval time.Duration) *InquiryRetryService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InquiryRetryService{
		retrier:  retrier,
		interval: interval,
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start returns at once. The first retry pass runs in the background right
// away, then one every interval.
func (s *InquiryRetryService) Start() {
	logger.Info("Starting inquiry retry service (runs every %s)", s.interval)

	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.retry()
		for {
			select {
			case <-s.ticker.C:
				s.retry()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop cancels a running pass, halts the service and waits for the
// goroutine to exit. Calling Stop more than once is safe.
func (s *InquiryRetryService) Stop() {
	s.stopOnce.Do(func() {
		logger.Info("Stopping inquiry retry service")
		close(s.done)
		s.cancel()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.wg.Wait()
	})
}

func (s *InquiryRetryService) retry() {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	report, err := s.retrier.RetryFailed(ctx, retryBatchSize)
	if err != nil {
		logger.Error("Failed to retry inquiry notifications: %v", err)
		return
	}
	if report.Attempted > 0 {
		logger.Info("Inquiry retry complete: %d of %d delivered", report.Delivered, report.Attempted)
	}
}
