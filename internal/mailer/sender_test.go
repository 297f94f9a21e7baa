package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-group/halyard-web/internal/config"
)

func testMessage() Message {
	return Message{
		To:      []string{"hello@halyard.group"},
		Subject: "New Academy inquiry from Ada Lovelace",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
		ReplyTo: "ada@example.com",
	}
}

func TestMessageValidate(t *testing.T) {
	assert.NoError(t, testMessage().Validate())

	noTo := testMessage()
	noTo.To = nil
	assert.ErrorIs(t, noTo.Validate(), ErrNoRecipients)

	noSubject := testMessage()
	noSubject.Subject = "  "
	assert.EqualError(t, noSubject.Validate(), "message subject is required")

	noBody := testMessage()
	noBody.HTML, noBody.Text = "", ""
	assert.EqualError(t, noBody.Validate(), "message body is required")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmailConfig
		wantName string
		wantErr  string
	}{
		{
			name:     "disabled falls back to noop",
			cfg:      config.EmailConfig{Enabled: false, Provider: config.EmailProviderMailgun},
			wantName: "noop",
		},
		{
			name:     "none",
			cfg:      config.EmailConfig{Enabled: true, Provider: config.EmailProviderNone},
			wantName: "noop",
		},
		{
			name: "mailgun",
			cfg: config.EmailConfig{
				Enabled: true, Provider: config.EmailProviderMailgun,
				MailgunDomain: "mg.halyard.group", MailgunAPIKey: "key", FromEmail: "no-reply@halyard.group",
			},
			wantName: "mailgun",
		},
		{
			name:    "mailgun missing key",
			cfg:     config.EmailConfig{Enabled: true, Provider: config.EmailProviderMailgun, MailgunDomain: "mg.halyard.group"},
			wantErr: "HALYARD_MAILGUN_API_KEY is required",
		},
		{
			name: "resend",
			cfg: config.EmailConfig{
				Enabled: true, Provider: config.EmailProviderResend,
				ResendAPIKey: "re_123", ResendURL: "https://api.resend.com", FromEmail: "no-reply@halyard.group",
			},
			wantName: "resend",
		},
		{
			name:    "unknown provider",
			cfg:     config.EmailConfig{Enabled: true, Provider: "smtp"},
			wantErr: "unsupported email provider: smtp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := New(tt.cfg)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sender.Name())
		})
	}
}

func TestFormatFrom(t *testing.T) {
	assert.Equal(t, "Halyard <no-reply@halyard.group>", formatFrom("Halyard", "no-reply@halyard.group"))
	assert.Equal(t, "no-reply@halyard.group", formatFrom("", "no-reply@halyard.group"))
}

func newResendTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewResendSender(config.EmailConfig{
		ResendAPIKey: "re_test",
		ResendURL:    srv.URL,
		FromEmail:    "no-reply@halyard.group",
		FromName:     "Halyard",
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return s
}

func TestResendSend(t *testing.T) {
	s := newResendTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var body resendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Halyard <no-reply@halyard.group>", body.From)
		assert.Equal(t, []string{"hello@halyard.group"}, body.To)
		assert.Equal(t, "ada@example.com", body.ReplyTo)
		assert.Equal(t, "<p>Hello</p>", body.HTML)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	})

	id, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)
}

func TestResendSendError(t *testing.T) {
	s := newResendTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	})

	_, err := s.Send(context.Background(), testMessage())
	assert.EqualError(t, err, "resend returned status 422: Invalid from field")
}

func TestResendRejectsInvalidMessage(t *testing.T) {
	var calls atomic.Int32
	s := newResendTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := s.Send(context.Background(), Message{Subject: "x", Text: "y"})
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Zero(t, calls.Load())
}

func TestMailgunSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mg.halyard.group/messages", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "api", user)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<20260101.1@mg.halyard.group>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	s, err := NewMailgunSender(config.EmailConfig{
		MailgunDomain: "mg.halyard.group",
		MailgunAPIKey: "key-test",
		FromEmail:     "no-reply@halyard.group",
		FromName:      "Halyard",
	})
	require.NoError(t, err)
	// mailgun-go only accepts a versioned API base
	s.client.SetAPIBase(srv.URL + "/v3")

	id, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, "<20260101.1@mg.halyard.group>", id)
}

func TestNoopSender(t *testing.T) {
	id, err := NewNoopSender().Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "noop-"))

	_, err = NewNoopSender().Send(context.Background(), Message{})
	assert.Error(t, err)
}
