package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantFields []string
	}{
		{"not found", fmt.Errorf("InquiryService.Get: %w", apperrors.ErrNotFound), http.StatusNotFound, nil},
		{"duplicate", apperrors.Duplicate("An account with this email already exists"), http.StatusConflict, nil},
		{"invalid field", apperrors.InvalidField("password", "Password is too weak"), http.StatusUnprocessableEntity, []string{"password"}},
		{"validation issues", apperrors.Validation("2 fields are invalid").WithIssue("name", "x").WithIssue("email", "y"),
			http.StatusUnprocessableEntity, []string{"name", "email"}},
		{"unauthorized", apperrors.Unauthorized("Authentication required"), http.StatusUnauthorized, nil},
		{"forbidden with checks", apperrors.Forbidden("Sign-up is not allowed from this origin").WithIssue("hostname", "expected a, got b"),
			http.StatusForbidden, []string{"hostname"}},
		{"rate limited", apperrors.RateLimited("Too many attempts"), http.StatusTooManyRequests, nil},
		{"upstream", apperrors.Upstream("Authentication service is unavailable"), http.StatusBadGateway, nil},
		{"unavailable", apperrors.Unavailable("Sign-up is disabled"), http.StatusServiceUnavailable, nil},
		{"database", fmt.Errorf("op: %w: boom", apperrors.ErrDatabaseError), http.StatusInternalServerError, nil},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/inquiries/x", nil)
			c.Set(utils.TraceIDKey, "trace-123")

			HandleServiceError(c, tt.err, "Inquiry")

			require.Equal(t, tt.wantStatus, w.Code)
			var p utils.ProblemDetail
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
			assert.Equal(t, "trace-123", p.TraceID)
			assert.NotContains(t, p.Detail, "boom")

			var fields []string
			for _, e := range p.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestRequestOrigin(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"origin header", map[string]string{"Origin": "https://www.halyard.group", "Referer": "https://other.example/x"}, "https://www.halyard.group"},
		{"referer fallback", map[string]string{"Referer": "https://staging.halyard.group/contact?x=1"}, "https://staging.halyard.group"},
		{"opaque origin", map[string]string{"Origin": "null", "Referer": "https://www.halyard.group/"}, "https://www.halyard.group"},
		{"nothing", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, RequestOrigin(c))
		})
	}
}
