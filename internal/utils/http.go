package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Pagination bounds applied to list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// GetPagination extracts limit and offset from query parameters
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = DefaultLimit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= MaxLimit {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return
}

// BindAndValidate binds the request body by content type (JSON or form) and
// responds with a 422 problem listing every failed field.
func BindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			ProblemBadRequest(c, "Request body could not be parsed")
			return false
		}
		ProblemValidationError(c, "The request contains invalid data", formatValidationErrors(verrs))
		return false
	}
	return true
}

// formatValidationErrors converts validation errors to developer-friendly messages
func formatValidationErrors(verrs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		param := e.Param()

		var msg string
		switch e.Tag() {
		case "required", "notblank":
			msg = fmt.Sprintf("%s is required", field)
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", field, param)
		case "max":
			msg = fmt.Sprintf("%s cannot exceed %s characters", field, param)
		case "email":
			msg = fmt.Sprintf("%s must be a valid email address", field)
		case "oneof":
			msg = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
		case "inquiry_topic":
			msg = fmt.Sprintf("%s must be one of: %s", field, topicList())
		case "e164":
			msg = fmt.Sprintf("%s must be a phone number in international format", field)
		default:
			msg = fmt.Sprintf("%s failed validation (%s)", field, e.Tag())
		}
		out = append(out, ValidationError{Field: field, Message: msg})
	}
	return out
}
