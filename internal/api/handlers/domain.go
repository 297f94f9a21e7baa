package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/halyard-group/halyard-web/internal/utils"
)

// CheckDomain validates an origin against the configured hosts and returns
// every check with its expected and actual value. The origin comes from the
// "origin" query parameter, or from the request itself when omitted.
func (h *Handlers) CheckDomain(c *gin.Context) {
	origin := c.Query("origin")
	if origin == "" {
		origin = RequestOrigin(c)
	}

	utils.Success(c, DomainCheckResponse{
		Report:          h.validator.Validate(origin),
		SecureTransport: h.validator.IsSecureTransport(origin),
	})
}
