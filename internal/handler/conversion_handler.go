package handler

import (
	"github.com/gin-gonic/gin"

	"excellerator/internal/service"
)

// ConversionHandler serves the caller's extraction history.
type ConversionHandler struct {
	conversionService service.ConversionService
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(conversionService service.ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService}
}

// List handles GET /api/v1/conversions
// @Summary List past extractions
// @Tags conversions
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} ConversionListResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /conversions [get]
func (h *ConversionHandler) List(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	items, total, err := h.conversionService.List(c.Request.Context(), owner, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, items, PagMeta{Total: total, Offset: offset, Limit: limit})
}
