// Package models contains the data models for the Halyard API.
package models

import "time"

// Topic is the subject area an inquiry is about. Each topic mirrors a site section.
type Topic string

const (
	TopicGeneral      Topic = "general"
	TopicAcademy      Topic = "academy"
	TopicClients      Topic = "clients"
	TopicPartnerships Topic = "partnerships"
	TopicTalent       Topic = "talent"
	TopicMaritime     Topic = "maritime"
	TopicEnergy       Topic = "energy"
)

// Topics lists every valid topic in display order.
func Topics() []Topic {
	return []Topic{
		TopicGeneral, TopicAcademy, TopicClients, TopicPartnerships,
		TopicTalent, TopicMaritime, TopicEnergy,
	}
}

// IsValid checks if the topic is a valid value
func (t Topic) IsValid() bool {
	switch t {
	case TopicGeneral, TopicAcademy, TopicClients, TopicPartnerships,
		TopicTalent, TopicMaritime, TopicEnergy:
		return true
	}
	return false
}

// Label returns the human-readable name used in email subjects.
func (t Topic) Label() string {
	switch t {
	case TopicGeneral:
		return "General"
	case TopicAcademy:
		return "Academy"
	case TopicClients:
		return "Client"
	case TopicPartnerships:
		return "Partnership"
	case TopicTalent:
		return "Talent"
	case TopicMaritime:
		return "Maritime"
	case TopicEnergy:
		return "Energy"
	}
	return string(t)
}

// String returns the string representation
func (t Topic) String() string {
	return string(t)
}

// InquiryStatus is the delivery state of an inquiry's notification email.
type InquiryStatus string

const (
	InquiryStatusPending InquiryStatus = "pending"
	InquiryStatusSent    InquiryStatus = "sent"
	InquiryStatusFailed  InquiryStatus = "failed"
)

// IsValid checks if the status is a valid value
func (s InquiryStatus) IsValid() bool {
	switch s {
	case InquiryStatusPending, InquiryStatusSent, InquiryStatusFailed:
		return true
	}
	return false
}

// String returns the string representation
func (s InquiryStatus) String() string {
	return string(s)
}

// Inquiry is a contact-form submission and the state of its notification.
type Inquiry struct {
	ID       int64  `db:"id" json:"-"`
	PublicID string `db:"public_id" json:"id"`

	Name    string  `db:"name" json:"name"`
	Email   string  `db:"email" json:"email"`
	Company *string `db:"company" json:"company,omitempty"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Topic   Topic   `db:"topic" json:"topic"`
	Message string  `db:"message" json:"message"`

	// Origin is the site origin the form was submitted from
	Origin *string `db:"origin" json:"origin,omitempty"`
	// ClientHash is a keyed digest of the submitter's IP; the raw address is never stored
	ClientHash string  `db:"client_hash" json:"-"`
	UserAgent  *string `db:"user_agent" json:"-"`

	Status    InquiryStatus `db:"status" json:"status"`
	MessageID *string       `db:"message_id" json:"message_id,omitempty"`
	Attempts  int           `db:"attempts" json:"attempts"`
	LastError *string       `db:"last_error" json:"last_error,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}
