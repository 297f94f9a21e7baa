package handlers

import "github.com/halyard-group/halyard-web/internal/domain"

const inquiryThanks = "Thank you, we will be in touch soon"

// InquiryReceipt is returned for an accepted inquiry.
type InquiryReceipt struct {
	ID        string `json:"id"`
	Delivered bool   `json:"delivered"`
	Message   string `json:"message"`
}

// AuthConfigResponse represents the authentication configuration response.
type AuthConfigResponse struct {
	Methods  []string `json:"methods"`
	OAuthURL string   `json:"oauth_url,omitempty"`
	// SignUpAllowed reports whether sign-up would be accepted from the caller's origin
	SignUpAllowed bool `json:"signup_allowed"`
}

// DomainCheckResponse is the validation report for one origin.
type DomainCheckResponse struct {
	domain.Report
	SecureTransport bool `json:"secure_transport"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}
