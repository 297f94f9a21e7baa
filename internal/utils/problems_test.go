package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProblemDetail(t *testing.T) {
	problem := NewProblemDetail(
		ProblemTypeValidationError,
		"Validation Error",
		422,
		"The request contains invalid data",
		"/api/v1/test",
	)

	assert.Equal(t, ProblemTypeValidationError, problem.Type)
	assert.Equal(t, "Validation Error", problem.Title)
	assert.Equal(t, 422, problem.Status)
	assert.Equal(t, "The request contains invalid data", problem.Detail)
	assert.Equal(t, "/api/v1/test", problem.Instance)

	// Verify timestamp is valid ISO 8601
	_, err := time.Parse(time.RFC3339, problem.Timestamp)
	assert.NoError(t, err)
}

func TestProblemDetailHelpers(t *testing.T) {
	tests := []struct {
		name           string
		constructor    func() *ProblemDetail
		expectedType   string
		expectedStatus int
	}{
		{
			name:           "NotFound",
			constructor:    func() *ProblemDetail { return NewNotFoundProblem("Inquiry", "/api/v1/inquiries/x") },
			expectedType:   ProblemTypeResourceNotFound,
			expectedStatus: 404,
		},
		{
			name:           "Duplicate",
			constructor:    func() *ProblemDetail { return NewDuplicateProblem("Account already exists", "/api/v1/session/signup") },
			expectedType:   ProblemTypeDuplicateResource,
			expectedStatus: 409,
		},
		{
			name:           "Authentication",
			constructor:    func() *ProblemDetail { return NewAuthenticationProblem("Invalid credentials", "/api/v1/session/signin") },
			expectedType:   ProblemTypeAuthenticationRequired,
			expectedStatus: 401,
		},
		{
			name:           "Authorization",
			constructor:    func() *ProblemDetail { return NewAuthorizationProblem("Insufficient permissions", "/api/v1/inquiries") },
			expectedType:   ProblemTypeInsufficientPermissions,
			expectedStatus: 403,
		},
		{
			name:           "RateLimit",
			constructor:    func() *ProblemDetail { return NewRateLimitProblem("Slow down", "/api/v1/inquiries") },
			expectedType:   ProblemTypeRateLimited,
			expectedStatus: 429,
		},
		{
			name:           "InternalServer",
			constructor:    func() *ProblemDetail { return NewInternalServerProblem("Database connection failed", "/api/v1/test") },
			expectedType:   ProblemTypeInternalServerError,
			expectedStatus: 500,
		},
		{
			name:           "BadRequest",
			constructor:    func() *ProblemDetail { return NewBadRequestProblem("Invalid JSON format", "/api/v1/test") },
			expectedType:   ProblemTypeBadRequest,
			expectedStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := tt.constructor()
			assert.Equal(t, tt.expectedType, problem.Type)
			assert.Equal(t, tt.expectedStatus, problem.Status)
			assert.NotEmpty(t, problem.Title)
			assert.NotEmpty(t, problem.Detail)
		})
	}
}

func newTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var response ProblemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestSendProblemFillsInstanceAndTraceID(t *testing.T) {
	c, w := newTestContext("GET", "/api/v1/test")
	c.Set(TraceIDKey, "trace-123456")

	SendProblem(c, NewValidationProblem("Test validation error", "", []ValidationError{
		{Field: "name", Message: "name is required"},
	}))

	assert.Equal(t, 422, w.Code)
	response := decodeProblem(t, w)
	assert.Equal(t, "/api/v1/test", response.Instance)
	assert.Equal(t, "trace-123456", response.TraceID)
	assert.Len(t, response.Errors, 1)
}

func TestProblemNotFoundResponse(t *testing.T) {
	c, w := newTestContext("GET", "/api/v1/inquiries/abc")

	ProblemNotFound(c, "Inquiry")

	assert.Equal(t, 404, w.Code)
	response := decodeProblem(t, w)
	assert.Equal(t, ProblemTypeResourceNotFound, response.Type)
	assert.Equal(t, "Inquiry not found", response.Detail)
	assert.Equal(t, "/api/v1/inquiries/abc", response.Instance)
	assert.Empty(t, response.TraceID)
}

func TestProblemAuthenticationSetsChallenge(t *testing.T) {
	c, w := newTestContext("GET", "/api/v1/session")

	ProblemAuthentication(c, "Authentication required")

	assert.Equal(t, 401, w.Code)
	assert.Equal(t, `Session realm="Halyard"`, w.Header().Get("WWW-Authenticate"))
}

func TestProblemForbiddenCarriesFailedChecks(t *testing.T) {
	c, w := newTestContext("POST", "/api/v1/session/signup")

	ProblemForbidden(c, "Sign-up is not allowed from this origin", []ValidationError{
		{Field: "protocol", Message: "expected https, got http"},
	})

	assert.Equal(t, 403, w.Code)
	response := decodeProblem(t, w)
	require.Len(t, response.Errors, 1)
	assert.Equal(t, "protocol", response.Errors[0].Field)
}

func TestProblemTooManyRequestsSetsRetryAfter(t *testing.T) {
	c, w := newTestContext("POST", "/api/v1/inquiries")

	ProblemTooManyRequests(c, "Too many submissions", "12")

	assert.Equal(t, 429, w.Code)
	assert.Equal(t, "12", w.Header().Get("Retry-After"))
}

func TestProblemExtendedUsesCodeInType(t *testing.T) {
	c, w := newTestContext("POST", "/api/v1/session/signin")

	ProblemExtended(c, 502, "Identity provider unavailable", "upstream", nil)

	assert.Equal(t, 502, w.Code)
	response := decodeProblem(t, w)
	assert.Equal(t, "https://halyard.group/problems/upstream", response.Type)
	assert.Equal(t, "upstream", response.Code)
	assert.Equal(t, "Bad Gateway", response.Title)
}
