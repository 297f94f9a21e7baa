package templates

import (
	"fmt"
	"strings"
	"time"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/halyard-group/halyard-web/internal/models"
)

// InquiryData is everything the inquiry emails show.
type InquiryData struct {
	Reference   string
	Name        string
	Email       string
	Company     string
	Phone       string
	Topic       models.Topic
	Message     string
	Origin      string
	SubmittedAt time.Time
}

var (
	notificationText    = textTemplate("inquiry_notification")
	acknowledgementText = textTemplate("inquiry_acknowledgement")
)

// InquirySubject returns "New <Topic label> inquiry from <Name>".
func InquirySubject(topic models.Topic, name string) string {
	return fmt.Sprintf("New %s inquiry from %s", topic.Label(), oneLine(name))
}

// RenderInquiryNotification renders the email sent to the Halyard inbox.
func RenderInquiryNotification(d InquiryData) (Email, error) {
	subject := InquirySubject(d.Topic, d.Name)

	body := layout(subject,
		H1(g.Textf("New %s inquiry", d.Topic.Label())),
		Table(Class("meta"),
			TBody(
				metaRow("From", g.Group{g.Text(d.Name + " "), A(Href("mailto:"+d.Email), g.Text("<"+d.Email+">"))}, true),
				metaRow("Company", g.Text(d.Company), d.Company != ""),
				metaRow("Phone", g.Text(d.Phone), d.Phone != ""),
				metaRow("Topic", g.Text(d.Topic.Label()), true),
				metaRow("Site", g.Text(d.Origin), d.Origin != ""),
				metaRow("Received", g.Text(formatTime(d.SubmittedAt)), true),
			),
		),
		Div(Class("message"), g.Text(d.Message)),
		P(Class("footer"), g.Textf("Reference %s. Reply to this email to answer %s directly.", d.Reference, d.Name)),
	)

	html, err := renderHTML(body)
	if err != nil {
		return Email{}, err
	}
	text, err := renderText(notificationText, d.textContext())
	if err != nil {
		return Email{}, err
	}

	return Email{Subject: subject, HTML: html, Text: text}, nil
}

// RenderInquiryAcknowledgement renders the confirmation sent back to the submitter.
func RenderInquiryAcknowledgement(d InquiryData) (Email, error) {
	subject := "We received your message"

	body := layout(subject,
		H1(g.Textf("Hi %s,", d.Name)),
		P(g.Textf("Thanks for your %s inquiry. We have received your message and will reply within two working days.",
			strings.ToLower(d.Topic.Label()))),
		P(g.Text("Your message:")),
		Div(Class("message"), g.Text(d.Message)),
		P(Class("footer"), g.Textf("Reference: %s", d.Reference)),
		P(g.Text("The Halyard team")),
	)

	html, err := renderHTML(body)
	if err != nil {
		return Email{}, err
	}
	text, err := renderText(acknowledgementText, d.textContext())
	if err != nil {
		return Email{}, err
	}

	return Email{Subject: subject, HTML: html, Text: text}, nil
}

func (d InquiryData) textContext() map[string]any {
	return map[string]any{
		"reference":    d.Reference,
		"name":         oneLine(d.Name),
		"email":        d.Email,
		"company":      oneLine(d.Company),
		"phone":        oneLine(d.Phone),
		"topic_label":  d.Topic.Label(),
		"topic_lower":  strings.ToLower(d.Topic.Label()),
		"message":      d.Message,
		"origin":       d.Origin,
		"submitted_at": formatTime(d.SubmittedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2 Jan 2006 15:04 MST")
}

// oneLine collapses whitespace so user input cannot inject header-like lines.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
