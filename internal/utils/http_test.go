package utils

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-group/halyard-web/internal/repository"
)

func init() {
	InitializeValidators()
}

type bindTarget struct {
	Name  string `json:"name" form:"name" binding:"required,notblank,max=10"`
	Email string `json:"email" form:"email" binding:"required,email"`
	Topic string `json:"topic" form:"topic" binding:"required,inquiry_topic"`
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantOK      bool
		wantStatus  int
		wantFields  []string
	}{
		{
			name:        "valid json",
			contentType: "application/json",
			body:        `{"name":"Ada","email":"ada@example.com","topic":"academy"}`,
			wantOK:      true,
		},
		{
			name:        "valid form",
			contentType: "application/x-www-form-urlencoded",
			body:        url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "topic": {"energy"}}.Encode(),
			wantOK:      true,
		},
		{
			name:        "blank name and bad topic",
			contentType: "application/json",
			body:        `{"name":"   ","email":"ada@example.com","topic":"crypto"}`,
			wantStatus:  422,
			wantFields:  []string{"name", "topic"},
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"name":`,
			wantStatus:  400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/api/v1/inquiries", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", tt.contentType)

			var target bindTarget
			ok := BindAndValidate(c, &target)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "Ada", target.Name)
				return
			}

			assert.Equal(t, tt.wantStatus, w.Code)
			if len(tt.wantFields) > 0 {
				problem := decodeProblem(t, w)
				var fields []string
				for _, e := range problem.Errors {
					fields = append(fields, e.Field)
				}
				assert.ElementsMatch(t, tt.wantFields, fields)
			}
		})
	}
}

func TestGetPagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"limit=50&offset=100", 50, 100},
		{"limit=500&offset=-1", DefaultLimit, 0},
		{"limit=abc", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := newTestContext("GET", "/api/v1/inquiries?"+tt.query)
			limit, offset := GetPagination(c)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestParseListQuery(t *testing.T) {
	c, _ := newTestContext("GET",
		"/api/v1/inquiries?limit=5&sort=-created_at,name:asc&search=%20acme%20"+
			"&filter[topic]=academy&filter[status][in]=failed,%20pending&filter[x][bogus]=1")

	q := ParseListQuery(c)

	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, "acme", q.Search)
	assert.Equal(t, []repository.SortField{
		{Field: "created_at", Direction: repository.SortDesc},
		{Field: "name", Direction: repository.SortAsc},
	}, q.Sort)

	require.Len(t, q.Filters, 2)
	byField := map[string]repository.FilterCondition{}
	for _, f := range q.Filters {
		byField[f.Field] = f
	}
	assert.Equal(t, repository.FilterEquals, byField["topic"].Operator)
	assert.Equal(t, "academy", byField["topic"].Value)
	assert.Equal(t, repository.FilterIn, byField["status"].Operator)
	assert.Equal(t, []string{"failed", "pending"}, byField["status"].Value)
}

func TestParseFilterKey(t *testing.T) {
	field, op := parseFilterKey("filter[created_at][gte]")
	assert.Equal(t, "created_at", field)
	assert.Equal(t, "gte", op)

	field, op = parseFilterKey("filter[topic]")
	assert.Equal(t, "topic", field)
	assert.Empty(t, op)

	field, _ = parseFilterKey("sort")
	assert.Empty(t, field)
}
