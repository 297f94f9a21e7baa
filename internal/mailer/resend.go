package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// ResendSender sends emails through the Resend REST API.
type ResendSender struct {
	http *resty.Client
	from string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// NewResendSender creates a Resend sender from cfg.
func NewResendSender(cfg config.EmailConfig) (*ResendSender, error) {
	switch {
	case cfg.ResendAPIKey == "":
		return nil, errors.New("HALYARD_RESEND_API_KEY is required")
	case cfg.FromEmail == "":
		return nil, errors.New("HALYARD_EMAIL_FROM_ADDRESS is required")
	}

	client := resty.New().
		SetBaseURL(cfg.ResendURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.ResendAPIKey).
		SetHeader("Accept", "application/json")

	return &ResendSender{
		http: client,
		from: formatFrom(cfg.FromName, cfg.FromEmail),
	}, nil
}

// Name identifies the provider in logs.
func (s *ResendSender) Name() string {
	return "resend"
}

// Send sends msg and returns the Resend email ID.
func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	logger.Debug("Sending email via resend to %v: %s", msg.To, msg.Subject)

	var out resendResponse
	var apiErr resendError
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(resendRequest{
			From:    s.from,
			To:      msg.To,
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
			ReplyTo: msg.ReplyTo,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend request failed: %w", err)
	}
	if resp.IsError() {
		detail := apiErr.Message
		if detail == "" {
			detail = resp.String()
		}
		return "", fmt.Errorf("resend returned status %d: %s", resp.StatusCode(), detail)
	}
	if out.ID == "" {
		return "", errors.New("resend response carried no email id")
	}
	return out.ID, nil
}
