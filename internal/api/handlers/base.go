// Package handlers provides HTTP request handlers for all API endpoints.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/apperrors"
	"github.com/halyard-group/halyard-web/internal/domain"
	"github.com/halyard-group/halyard-web/internal/models"
	"github.com/halyard-group/halyard-web/internal/repository"
	"github.com/halyard-group/halyard-web/internal/services"
	"github.com/halyard-group/halyard-web/internal/utils"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// InquiryService is the inquiry business logic the handlers depend on.
type InquiryService interface {
	Submit(ctx context.Context, in services.InquiryInput, client services.ClientInfo) (*services.SubmitResult, error)
	Get(ctx context.Context, publicID string) (*models.Inquiry, error)
	List(ctx context.Context, query *repository.ListQuery) (*repository.ListResult[models.Inquiry], error)
}

// Handlers contains all the dependencies needed by the API handlers.
type Handlers struct {
	inquiries InquiryService
	validator *domain.Validator
}

// NewHandlers creates a new Handlers instance with all required dependencies.
func NewHandlers(inquiries InquiryService, validator *domain.Validator) *Handlers {
	return &Handlers{
		inquiries: inquiries,
		validator: validator,
	}
}

// HandleServiceError converts apperrors.Error to appropriate HTTP responses.
// Internal error details are logged but never exposed to clients.
func HandleServiceError(c *gin.Context, err error, resource string) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("Unhandled error for %s: %v", resource, err)
		utils.ProblemInternalServer(c, fmt.Sprintf("Failed to process %s", resource))
		return
	}

	if appErr.Internal != "" {
		logger.Error("%s error: %s (internal: %s)", resource, appErr.Message, appErr.Internal)
	}
	if appErr.Err != nil {
		logger.Error("%s underlying error: %v", resource, appErr.Err)
	}

	code := appErr.Code.String()
	switch appErr.Code {
	case apperrors.CodeNotFound:
		utils.ProblemNotFound(c, resource)
	case apperrors.CodeDuplicate:
		utils.ProblemDuplicate(c, appErr.Message)
	case apperrors.CodeInvalidInput, apperrors.CodeValidation:
		utils.ProblemExtended(c, http.StatusUnprocessableEntity, appErr.Message, code, issues(appErr))
	case apperrors.CodeUnauthorized:
		utils.ProblemAuthentication(c, appErr.Message)
	case apperrors.CodeForbidden:
		utils.ProblemForbidden(c, appErr.Message, issues(appErr))
	case apperrors.CodeRateLimited:
		utils.ProblemTooManyRequests(c, appErr.Message, "60")
	case apperrors.CodeUpstream:
		utils.ProblemExtended(c, http.StatusBadGateway, appErr.Message, code, nil)
	case apperrors.CodeUnavailable:
		utils.ProblemExtended(c, http.StatusServiceUnavailable, appErr.Message, code, nil)
	default:
		utils.ProblemInternalServer(c, fmt.Sprintf("Failed to process %s", resource))
	}
}

// issues converts field issues to problem errors, falling back to the single Field.
func issues(appErr *apperrors.Error) []utils.ValidationError {
	if len(appErr.Issues) == 0 {
		if appErr.Field == "" {
			return nil
		}
		return []utils.ValidationError{{Field: appErr.Field, Message: appErr.Message}}
	}
	out := make([]utils.ValidationError, len(appErr.Issues))
	for i, issue := range appErr.Issues {
		out[i] = utils.ValidationError{Field: issue.Field, Message: issue.Message}
	}
	return out
}

// RequestOrigin returns the browser origin of the request: the Origin header,
// or the scheme and host of the Referer when Origin is absent.
func RequestOrigin(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" && origin != "null" {
		return origin
	}
	return domain.OriginFromURL(c.GetHeader("Referer"))
}
