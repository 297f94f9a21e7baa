package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/services"
	"github.com/halyard-group/halyard-web/internal/utils"
)

// SubmitInquiry accepts a contact-form submission as JSON or form data.
// Returns 201 when the notification went out, 202 when it is queued for retry,
// and 200 for submissions caught by the honeypot.
func (h *Handlers) SubmitInquiry(c *gin.Context) {
	var req services.InquiryInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.inquiries.Submit(c.Request.Context(), req, services.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Origin:    RequestOrigin(c),
	})
	if err != nil {
		HandleServiceError(c, err, "Inquiry")
		return
	}

	switch {
	case result.Spam:
		utils.Success(c, utils.MessageResponse{Message: inquiryThanks})
	case result.Delivered:
		utils.Created(c, "/api/v1/inquiries/"+result.ID, InquiryReceipt{
			ID:        result.ID,
			Delivered: true,
			Message:   inquiryThanks,
		})
	default:
		utils.Accepted(c, InquiryReceipt{
			ID:      result.ID,
			Message: inquiryThanks,
		})
	}
}

// ListInquiries returns a page of inquiries, newest first.
// Supports search, filtering on topic and status, sorting and pagination.
func (h *Handlers) ListInquiries(c *gin.Context) {
	query := utils.ParseListQuery(c)

	result, err := h.inquiries.List(c.Request.Context(), query)
	if err != nil {
		HandleServiceError(c, err, "Inquiry")
		return
	}

	utils.PaginatedResponse(c, result.Data, result.Total, result.Limit, result.Offset)
}

// GetInquiry returns one inquiry by its public ID.
func (h *Handlers) GetInquiry(c *gin.Context) {
	inq, err := h.inquiries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err, "Inquiry")
		return
	}
	utils.Success(c, inq)
}
