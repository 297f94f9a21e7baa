// Package services provides the business logic behind the Halyard API.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/internal/mailer"
	"github.com/halyard-group/halyard-web/internal/models"
	"github.com/halyard-group/halyard-web/internal/repository"
	"github.com/halyard-group/halyard-web/internal/templates"
	"github.com/halyard-group/halyard-web/internal/validation"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// Field limits for inquiry submissions.
const (
	MaxNameLength    = 120
	MaxEmailLength   = 254
	MaxCompanyLength = 160
	MaxPhoneLength   = 40
	MaxMessageLength = 5000
	maxOriginLength  = 255
	maxAgentLength   = 255
)

// staleClaim is how long a pending inquiry may sit before a retry claims it.
const staleClaim = 10 * time.Minute

// InquiryInput is a contact-form submission. Website is a honeypot field
// that is hidden from people, so anything in it marks the submission as spam.
type InquiryInput struct {
	Name    string `json:"name" form:"name" binding:"required,notblank,max=120"`
	Email   string `json:"email" form:"email" binding:"required,email,max=254"`
	Company string `json:"company" form:"company" binding:"max=160"`
	Phone   string `json:"phone" form:"phone" binding:"max=40"`
	Topic   string `json:"topic" form:"topic" binding:"required,inquiry_topic"`
	Message string `json:"message" form:"message" binding:"required,notblank,max=5000"`
	Website string `json:"website" form:"website"`
}

// ClientInfo describes who submitted an inquiry.
type ClientInfo struct {
	IP        string
	UserAgent string
	Origin    string
}

// SubmitResult reports what happened to a submission.
type SubmitResult struct {
	ID        string `json:"id,omitempty"`
	Delivered bool   `json:"delivered"`
	Spam      bool   `json:"-"`
	MessageID string `json:"-"`
}

// RetryReport summarises one RetryFailed run.
type RetryReport struct {
	Attempted int
	Delivered int
}

// InquiryServiceDeps holds the collaborators of InquiryService.
type InquiryServiceDeps struct {
	Repo      repository.InquiryRepository
	TxManager repository.TxManager
	Sender    mailer.Sender
	Config    config.InquiryConfig
}

// InquiryService validates, stores and forwards inquiries.
type InquiryService struct {
	repo    repository.InquiryRepository
	tx      repository.TxManager
	sender  mailer.Sender
	cfg     config.InquiryConfig
	hashKey []byte
	now     func() time.Time
}

var emailValidator = validator.New()

// NewInquiryService creates a new inquiry service.
func NewInquiryService(deps InquiryServiceDeps) (*InquiryService, error) {
	if deps.Repo == nil || deps.Sender == nil || deps.TxManager == nil {
		return nil, errors.New("inquiry service requires a repository, a transaction manager and a sender")
	}
	if strings.TrimSpace(deps.Config.Recipient) == "" {
		return nil, errors.New("inquiry recipient is required")
	}
	if deps.Config.MaxAttempts <= 0 {
		deps.Config.MaxAttempts = 5
	}

	// Any length secret becomes a valid 32-byte BLAKE2b key
	key := blake2b.Sum256([]byte(deps.Config.HashKey))

	return &InquiryService{
		repo:    deps.Repo,
		tx:      deps.TxManager,
		sender:  deps.Sender,
		cfg:     deps.Config,
		hashKey: key[:],
		now:     time.Now,
	}, nil
}

// Submit stores an inquiry and forwards it to the Halyard inbox. A failed
// delivery is recorded for retry and is not an error: the inquiry is kept
// and the result reports Delivered=false.
func (s *InquiryService) Submit(ctx context.Context, in InquiryInput, client ClientInfo) (*SubmitResult, error) {
	const op = "InquiryService.Submit"

	in = in.normalized()
	if err := in.validate().ToError(); err != nil {
		return nil, err
	}

	if in.Website != "" {
		logger.Info("Discarded honeypot inquiry from client %s", s.hashClient(client.IP)[:12])
		return &SubmitResult{Spam: true}, nil
	}

	inq := &models.Inquiry{
		PublicID:   uuid.NewString(),
		Name:       in.Name,
		Email:      in.Email,
		Company:    optional(in.Company),
		Phone:      optional(in.Phone),
		Topic:      models.Topic(in.Topic),
		Message:    in.Message,
		Origin:     optional(clip(client.Origin, maxOriginLength)),
		ClientHash: s.hashClient(client.IP),
		UserAgent:  optional(clip(client.UserAgent, maxAgentLength)),
		Status:     models.InquiryStatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, inq); err != nil {
		logger.Error("Failed to store inquiry: %v", err)
		return nil, apperrors.TranslateRepoError(op, err)
	}
	logger.Info("Stored %s inquiry %s", inq.Topic, inq.PublicID)

	result := &SubmitResult{ID: inq.PublicID}
	messageID, err := s.deliver(ctx, inq)
	if err != nil {
		return result, nil
	}
	result.Delivered = true
	result.MessageID = messageID

	if s.cfg.Acknowledge {
		s.acknowledge(ctx, inq)
	}
	return result, nil
}

// Get returns one inquiry by its public ID.
func (s *InquiryService) Get(ctx context.Context, publicID string) (*models.Inquiry, error) {
	const op = "InquiryService.Get"

	if _, err := uuid.Parse(publicID); err != nil {
		return nil, apperrors.NotFound("Inquiry not found")
	}
	inq, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, apperrors.TranslateRepoError(op, err)
	}
	return inq, nil
}

// List returns a page of inquiries.
func (s *InquiryService) List(ctx context.Context, query *repository.ListQuery) (*repository.ListResult[models.Inquiry], error) {
	const op = "InquiryService.List"

	result, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, apperrors.TranslateRepoError(op, err)
	}
	return result, nil
}

// RetryFailed claims up to limit undelivered inquiries and tries to send them again.
func (s *InquiryService) RetryFailed(ctx context.Context, limit int) (RetryReport, error) {
	const op = "InquiryService.RetryFailed"

	var claimed []models.Inquiry
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		rows, err := s.repo.ListRetryable(txCtx, s.cfg.MaxAttempts, s.now().Add(-staleClaim).UTC(), limit)
		if err != nil {
			return err
		}
		ids := make([]int64, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		if err := s.repo.MarkPending(txCtx, ids); err != nil {
			return err
		}
		claimed = rows
		return nil
	})
	if err != nil {
		return RetryReport{}, apperrors.TranslateRepoError(op, err)
	}

	report := RetryReport{Attempted: len(claimed)}
	for i := range claimed {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.deliver(ctx, &claimed[i]); err == nil {
			report.Delivered++
		}
	}
	return report, nil
}

// deliver renders and sends the notification for inq, then records the outcome.
func (s *InquiryService) deliver(ctx context.Context, inq *models.Inquiry) (string, error) {
	// Bookkeeping must land even if the caller goes away mid-send
	recordCtx := context.WithoutCancel(ctx)

	email, err := templates.RenderInquiryNotification(inquiryData(inq))
	if err == nil {
		var messageID string
		messageID, err = s.sender.Send(ctx, mailer.Message{
			To:      []string{s.cfg.Recipient},
			Subject: email.Subject,
			HTML:    email.HTML,
			Text:    email.Text,
			ReplyTo: inq.Email,
		})
		if err == nil {
			if markErr := s.repo.MarkSent(recordCtx, inq.ID, messageID, s.now().UTC()); markErr != nil {
				logger.Error("Inquiry %s was sent as %s but could not be marked: %v", inq.PublicID, messageID, markErr)
			}
			logger.Info("Sent inquiry %s via %s (%s)", inq.PublicID, s.sender.Name(), messageID)
			return messageID, nil
		}
	}

	logger.Error("Failed to deliver inquiry %s via %s (attempt %d): %v", inq.PublicID, s.sender.Name(), inq.Attempts+1, err)
	if markErr := s.repo.MarkFailed(recordCtx, inq.ID, err.Error()); markErr != nil {
		logger.Error("Failed to record delivery failure for inquiry %s: %v", inq.PublicID, markErr)
	}
	return "", err
}

// acknowledge sends the submitter a receipt. Failures are only logged.
func (s *InquiryService) acknowledge(ctx context.Context, inq *models.Inquiry) {
	email, err := templates.RenderInquiryAcknowledgement(inquiryData(inq))
	if err != nil {
		logger.Error("Failed to render acknowledgement for inquiry %s: %v", inq.PublicID, err)
		return
	}
	if _, err := s.sender.Send(ctx, mailer.Message{
		To:      []string{inq.Email},
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
		ReplyTo: s.cfg.Recipient,
	}); err != nil {
		logger.Warn("Failed to acknowledge inquiry %s: %v", inq.PublicID, err)
	}
}

// hashClient returns the keyed BLAKE2b digest of ip, hex encoded.
func (s *InquiryService) hashClient(ip string) string {
	h, err := blake2b.New256(s.hashKey)
	if err != nil {
		// Only possible with a key over 64 bytes
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

func (in InquiryInput) normalized() InquiryInput {
	in.Name = strings.Join(strings.Fields(in.Name), " ")
	in.Email = strings.TrimSpace(in.Email)
	in.Company = strings.TrimSpace(in.Company)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Topic = strings.ToLower(strings.TrimSpace(in.Topic))
	in.Message = strings.TrimSpace(strings.ReplaceAll(in.Message, "\r\n", "\n"))
	in.Website = strings.TrimSpace(in.Website)
	return in
}

// validate repeats the binding rules so Submit is safe to call from anywhere.
func (in InquiryInput) validate() *validation.Result {
	r := validation.New().
		Text("name", in.Name, MaxNameLength, true).
		Text("email", in.Email, MaxEmailLength, true)
	if in.Email != "" {
		r.Check(emailValidator.Var(in.Email, "email") == nil, "email", "email must be a valid email address")
	}
	r.Text("company", in.Company, MaxCompanyLength, false).
		Text("phone", in.Phone, MaxPhoneLength, false).
		Check(models.Topic(in.Topic).IsValid(), "topic", fmt.Sprintf("topic must be one of: %s", topicNames())).
		Text("message", in.Message, MaxMessageLength, true)

	return r
}

func inquiryData(inq *models.Inquiry) templates.InquiryData {
	return templates.InquiryData{
		Reference:   inq.PublicID,
		Name:        inq.Name,
		Email:       inq.Email,
		Company:     deref(inq.Company),
		Phone:       deref(inq.Phone),
		Topic:       inq.Topic,
		Message:     inq.Message,
		Origin:      deref(inq.Origin),
		SubmittedAt: inq.CreatedAt,
	}
}

func topicNames() string {
	topics := models.Topics()
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
