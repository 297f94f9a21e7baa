package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse represents a simple message response (typed alternative to gin.H).
type MessageResponse struct {
	Message string `json:"message"`
}

// ListResponse represents a paginated list response (typed alternative to gin.H).
type ListResponse struct {
	Data   any   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Success responds with HTTP 200 OK status and the provided data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created responds with HTTP 201 Created and sets the Location header.
func Created(c *gin.Context, location string, data any) {
	if location != "" {
		c.Header("Location", location)
	}
	c.JSON(http.StatusCreated, data)
}

// Accepted responds with HTTP 202 Accepted for work that completes later.
func Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// NoContent responds with HTTP 204 No Content.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// PaginatedResponse responds with paginated data in a consistent format.
func PaginatedResponse(c *gin.Context, data any, total int64, limit, offset int) {
	c.JSON(http.StatusOK, ListResponse{
		Data:   data,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// RFC 9457 Problem Details compatible error response functions.

// ProblemValidationError responds with HTTP 422 for input validation failures.
func ProblemValidationError(c *gin.Context, detail string, errors []ValidationError) {
	SendProblem(c, NewValidationProblem(detail, c.Request.URL.Path, errors))
}

// ProblemNotFound responds with HTTP 404 Not Found.
func ProblemNotFound(c *gin.Context, resource string) {
	SendProblem(c, NewNotFoundProblem(resource, c.Request.URL.Path))
}

// ProblemDuplicate responds with HTTP 409 Conflict.
func ProblemDuplicate(c *gin.Context, detail string) {
	SendProblem(c, NewDuplicateProblem(detail, c.Request.URL.Path))
}

// ProblemAuthentication responds with HTTP 401 Unauthorized.
// Per RFC 7235, includes WWW-Authenticate header.
func ProblemAuthentication(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Session realm="Halyard"`)
	SendProblem(c, NewAuthenticationProblem(detail, c.Request.URL.Path))
}

// ProblemForbidden responds with HTTP 403 Forbidden and optional failed checks.
func ProblemForbidden(c *gin.Context, detail string, errors []ValidationError) {
	SendProblem(c, NewAuthorizationProblem(detail, c.Request.URL.Path).WithErrors(errors))
}

// ProblemTooManyRequests responds with HTTP 429 and a Retry-After hint in seconds.
func ProblemTooManyRequests(c *gin.Context, detail string, retryAfter string) {
	if retryAfter != "" {
		c.Header("Retry-After", retryAfter)
	}
	SendProblem(c, NewRateLimitProblem(detail, c.Request.URL.Path))
}

// ProblemInternalServer responds with HTTP 500 Internal Server Error.
func ProblemInternalServer(c *gin.Context, detail string) {
	SendProblem(c, NewInternalServerProblem(detail, c.Request.URL.Path))
}

// ProblemBadRequest responds with HTTP 400 Bad Request.
func ProblemBadRequest(c *gin.Context, detail string) {
	SendProblem(c, NewBadRequestProblem(detail, c.Request.URL.Path))
}

// ProblemExtended responds with an RFC 9457 problem carrying a machine-readable code.
// This is used by handlers.HandleServiceError for typed error responses.
func ProblemExtended(c *gin.Context, status int, detail, code string, errors []ValidationError) {
	problem := NewProblemDetail(
		problemBaseURI+code,
		http.StatusText(status),
		status,
		detail,
		c.Request.URL.Path,
	).WithCode(code).WithErrors(errors)
	SendProblem(c, problem)
}
