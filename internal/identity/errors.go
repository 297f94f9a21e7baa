package identity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when no identity provider URL is set.
var ErrNotConfigured = errors.New("identity provider is not configured")

// APIError represents an error response from the identity provider with the HTTP status code preserved.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// apiErrorBody covers the error shapes GoTrue has used across versions.
type apiErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b *apiErrorBody) toAPIError(status int) *APIError {
	e := &APIError{StatusCode: status}
	switch {
	case b.ErrorCode != "":
		e.Code = b.ErrorCode
	case b.Error != "":
		e.Code = b.Error
	}
	switch {
	case b.ErrorDescription != "":
		e.Message = b.ErrorDescription
	case b.Msg != "":
		e.Message = b.Msg
	case b.Message != "":
		e.Message = b.Message
	}
	return e
}

func (e *APIError) Error() string {
	switch {
	case e.IsInvalidCredentials():
		return "identity provider rejected the credentials"
	case e.StatusCode == http.StatusUnauthorized:
		return "identity provider session is invalid or expired"
	case e.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Sprintf("identity provider rejected the request: %s", e.Message)
	case e.StatusCode == http.StatusTooManyRequests:
		return "identity provider rate limit exceeded, try again later"
	default:
		return fmt.Sprintf("identity provider returned status %d: %s", e.StatusCode, e.Message)
	}
}

// IsInvalidCredentials reports whether the provider refused an email/password pair.
func (e *APIError) IsInvalidCredentials() bool {
	return e.Code == "invalid_grant" || e.Code == "invalid_credentials" ||
		(e.StatusCode == http.StatusBadRequest && e.Code == "")
}

// IsRateLimited reports whether the provider throttled the request.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "over_request_rate_limit" ||
		e.Code == "over_email_send_rate_limit"
}

// AsAPIError unwraps err to an *APIError when it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
