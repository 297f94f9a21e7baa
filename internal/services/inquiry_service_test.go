package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/internal/mailer"
	"github.com/halyard-group/halyard-web/internal/models"
	"github.com/halyard-group/halyard-web/internal/repository"
)

var testNow = time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC)

// memoryRepo is an in-memory InquiryRepository.
type memoryRepo struct {
	mu        sync.Mutex
	rows      map[int64]*models.Inquiry
	nextID    int64
	createErr error
	claimed   [][]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]*models.Inquiry{}}
}

func (r *memoryRepo) Create(_ context.Context, inq *models.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	inq.ID = r.nextID
	inq.UpdatedAt = inq.CreatedAt
	cp := *inq
	r.rows[inq.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByPublicID(_ context.Context, publicID string) (*models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inq := range r.rows {
		if inq.PublicID == publicID {
			cp := *inq
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, query *repository.ListQuery) (*repository.ListResult[models.Inquiry], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data := []models.Inquiry{}
	for _, inq := range r.rows {
		data = append(data, *inq)
	}
	return &repository.ListResult[models.Inquiry]{Data: data, Total: int64(len(data)), Limit: query.Limit}, nil
}

func (r *memoryRepo) MarkSent(_ context.Context, id int64, messageID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inq, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	inq.Status = models.InquiryStatusSent
	inq.MessageID = &messageID
	inq.SentAt = &at
	inq.LastError = nil
	inq.Attempts++
	return nil
}

func (r *memoryRepo) MarkFailed(_ context.Context, id int64, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inq, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	inq.Status = models.InquiryStatusFailed
	inq.LastError = &lastError
	inq.Attempts++
	return nil
}

func (r *memoryRepo) ListRetryable(_ context.Context, maxAttempts int, staleBefore time.Time, limit int) ([]models.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Inquiry
	for id := int64(1); id <= r.nextID && len(out) < limit; id++ {
		inq, ok := r.rows[id]
		if !ok || inq.Attempts >= maxAttempts {
			continue
		}
		stale := inq.Status == models.InquiryStatusPending && inq.UpdatedAt.Before(staleBefore)
		if inq.Status == models.InquiryStatusFailed || stale {
			out = append(out, *inq)
		}
	}
	return out, nil
}

func (r *memoryRepo) MarkPending(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimed = append(r.claimed, ids)
	for _, id := range ids {
		r.rows[id].Status = models.InquiryStatusPending
	}
	return nil
}

func (r *memoryRepo) only(t *testing.T) models.Inquiry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.rows, 1)
	for _, inq := range r.rows {
		return *inq
	}
	return models.Inquiry{}
}

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// fakeSender records messages and fails while failing is set.
type fakeSender struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failing error
	// failTo fails only messages addressed to this recipient
	failTo string
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil && (f.failTo == "" || msg.To[0] == f.failTo) {
		return "", f.failing
	}
	f.sent = append(f.sent, msg)
	return "msg-" + strings.Repeat("x", len(f.sent)), nil
}

func newTestInquiryService(t *testing.T, repo *memoryRepo, sender *fakeSender, acknowledge bool) *InquiryService {
	t.Helper()
	svc, err := NewInquiryService(InquiryServiceDeps{
		Repo:      repo,
		TxManager: &passthroughTx{},
		Sender:    sender,
		Config: config.InquiryConfig{
			Recipient:   "hello@halyard.group",
			Acknowledge: acknowledge,
			MaxAttempts: 3,
			HashKey:     "test-hash-key",
		},
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validInput() InquiryInput {
	return InquiryInput{
		Name:    "  Ada   Lovelace ",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
		Topic:   "Maritime",
		Message: "We need crew training.\r\nCan you help?",
	}
}

func testClient() ClientInfo {
	return ClientInfo{IP: "203.0.113.7", UserAgent: "Mozilla/5.0", Origin: "https://www.halyard.group"}
}

func TestNewInquiryServiceValidatesDeps(t *testing.T) {
	_, err := NewInquiryService(InquiryServiceDeps{Repo: newMemoryRepo(), TxManager: &passthroughTx{}, Sender: &fakeSender{}})
	assert.Error(t, err, "recipient is required")

	_, err = NewInquiryService(InquiryServiceDeps{Config: config.InquiryConfig{Recipient: "a@b.co"}})
	assert.Error(t, err)
}

func TestSubmitDeliversNotification(t *testing.T) {
	repo := newMemoryRepo()
	sender := &fakeSender{}
	svc := newTestInquiryService(t, repo, sender, false)

	result, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.False(t, result.Spam)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "msg-x", result.MessageID)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"hello@halyard.group"}, msg.To)
	assert.Equal(t, "New Maritime inquiry from Ada Lovelace", msg.Subject)
	assert.Equal(t, "ada@example.com", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "Analytical Engines")
	assert.Contains(t, msg.Text, "We need crew training.\nCan you help?")

	stored := repo.only(t)
	assert.Equal(t, result.ID, stored.PublicID)
	assert.Equal(t, models.InquiryStatusSent, stored.Status)
	assert.Equal(t, models.TopicMaritime, stored.Topic)
	assert.Equal(t, "Ada Lovelace", stored.Name)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.MessageID)
	assert.Equal(t, "msg-x", *stored.MessageID)
	assert.Nil(t, stored.Phone)
	require.NotNil(t, stored.Origin)
	assert.Equal(t, "https://www.halyard.group", *stored.Origin)
}

func TestSubmitNeverStoresRawIP(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestInquiryService(t, repo, &fakeSender{}, false)

	_, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)

	stored := repo.only(t)
	assert.Len(t, stored.ClientHash, 64)
	assert.NotContains(t, stored.ClientHash, "203.0.113.7")
	assert.Equal(t, svc.hashClient("203.0.113.7"), stored.ClientHash)
	assert.NotEqual(t, svc.hashClient("203.0.113.8"), stored.ClientHash)

	other := newTestInquiryService(t, newMemoryRepo(), &fakeSender{}, false)
	other.hashKey = []byte("another-key")
	assert.NotEqual(t, other.hashClient("203.0.113.7"), stored.ClientHash, "digest depends on the key")
}

func TestSubmitKeepsInquiryWhenDeliveryFails(t *testing.T) {
	repo := newMemoryRepo()
	sender := &fakeSender{failing: errors.New("mailgun: 502 bad gateway")}
	svc := newTestInquiryService(t, repo, sender, true)

	result, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)
	assert.False(t, result.Delivered)
	assert.NotEmpty(t, result.ID)

	stored := repo.only(t)
	assert.Equal(t, models.InquiryStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "502")

	// No acknowledgement for an undelivered inquiry
	assert.Empty(t, sender.sent)
}

func TestSubmitHoneypotIsDiscarded(t *testing.T) {
	repo := newMemoryRepo()
	sender := &fakeSender{}
	svc := newTestInquiryService(t, repo, sender, true)

	in := validInput()
	in.Website = "http://spam.example"
	result, err := svc.Submit(context.Background(), in, testClient())
	require.NoError(t, err)

	assert.True(t, result.Spam)
	assert.False(t, result.Delivered)
	assert.Empty(t, result.ID)
	assert.Empty(t, repo.rows)
	assert.Empty(t, sender.sent)
}

func TestSubmitSendsAcknowledgement(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestInquiryService(t, newMemoryRepo(), sender, true)

	result, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)
	assert.True(t, result.Delivered)

	require.Len(t, sender.sent, 2)
	ack := sender.sent[1]
	assert.Equal(t, []string{"ada@example.com"}, ack.To)
	assert.Equal(t, "We received your message", ack.Subject)
	assert.Equal(t, "hello@halyard.group", ack.ReplyTo)
}

func TestSubmitAcknowledgementFailureIsIgnored(t *testing.T) {
	sender := &fakeSender{failing: errors.New("mailbox full"), failTo: "ada@example.com"}
	repo := newMemoryRepo()
	svc := newTestInquiryService(t, repo, sender, true)

	result, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Equal(t, models.InquiryStatusSent, repo.only(t).Status)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*InquiryInput)
		wantFields []string
	}{
		{"blank name", func(in *InquiryInput) { in.Name = "   " }, []string{"name"}},
		{"bad email", func(in *InquiryInput) { in.Email = "not-an-email" }, []string{"email"}},
		{"unknown topic", func(in *InquiryInput) { in.Topic = "crypto" }, []string{"topic"}},
		{"missing topic", func(in *InquiryInput) { in.Topic = "" }, []string{"topic"}},
		{"long message", func(in *InquiryInput) { in.Message = strings.Repeat("é", MaxMessageLength+1) }, []string{"message"}},
		{"everything wrong", func(in *InquiryInput) {
			in.Name, in.Email, in.Message = "", "", ""
			in.Phone = strings.Repeat("1", MaxPhoneLength+1)
		}, []string{"name", "email", "phone", "message"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := newTestInquiryService(t, repo, &fakeSender{}, false)

			in := validInput()
			tt.mutate(&in)
			_, err := svc.Submit(context.Background(), in, testClient())
			require.Error(t, err)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			var fields []string
			for _, issue := range appErr.Issues {
				fields = append(fields, issue.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
			assert.Empty(t, repo.rows)
		})
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.createErr = errors.New("connection reset")
	sender := &fakeSender{}
	svc := newTestInquiryService(t, repo, sender, false)

	_, err := svc.Submit(context.Background(), validInput(), testClient())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
	assert.Empty(t, sender.sent)
}

func TestGet(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestInquiryService(t, repo, &fakeSender{}, false)

	result, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)

	inq, err := svc.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", inq.Name)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(context.Background(), "0b7a4a53-5f0e-4d8e-bb51-7fd0b0f3a111")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRetryFailedResendsUntilMaxAttempts(t *testing.T) {
	repo := newMemoryRepo()
	sender := &fakeSender{failing: errors.New("provider down")}
	svc := newTestInquiryService(t, repo, sender, false)
	tx := svc.tx.(*passthroughTx)

	_, err := svc.Submit(context.Background(), validInput(), testClient())
	require.NoError(t, err)

	// Still failing: attempts 2 and 3, then the row is exhausted
	for range 3 {
		_, err := svc.RetryFailed(context.Background(), 10)
		require.NoError(t, err)
	}
	stored := repo.only(t)
	assert.Equal(t, models.InquiryStatusFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	assert.Equal(t, 3, tx.calls)

	report, err := svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, RetryReport{}, report)
}

func TestRetryFailedDeliversRecoveredInquiries(t *testing.T) {
	repo := newMemoryRepo()
	sender := &fakeSender{failing: errors.New("provider down")}
	svc := newTestInquiryService(t, repo, sender, false)

	for range 2 {
		_, err := svc.Submit(context.Background(), validInput(), testClient())
		require.NoError(t, err)
	}

	sender.failing = nil
	report, err := svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, RetryReport{Attempted: 2, Delivered: 2}, report)
	assert.Equal(t, [][]int64{{1, 2}}, repo.claimed)
	assert.Len(t, sender.sent, 2)

	for _, inq := range repo.rows {
		assert.Equal(t, models.InquiryStatusSent, inq.Status)
		assert.Equal(t, 2, inq.Attempts)
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "héllo", clip("héllo", 5))
	assert.Equal(t, "hé", clip("héllo", 2))
}
