package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"excellerator/internal/domain"
	"excellerator/internal/service"
	"excellerator/internal/tableschema"
)

// ConvertHandler serves the stateless document and chat endpoints used by the
// browser client. Responses are bare JSON objects, not the API envelope.
type ConvertHandler struct {
	extraction service.ExtractionService
	edit       service.EditService
	maxBytes   int64
}

// NewConvertHandler creates a new ConvertHandler.
func NewConvertHandler(extraction service.ExtractionService, edit service.EditService, maxBytes int64) *ConvertHandler {
	return &ConvertHandler{extraction: extraction, edit: edit, maxBytes: maxBytes}
}

// ChatRequest is the body of a stateless chat turn.
type ChatRequest struct {
	Message string          `json:"message" example:"Change row 1 price to 500"`
	Data    json.RawMessage `json:"data" swaggertype:"array,object"`
	History json.RawMessage `json:"history" swaggertype:"array,object"`
}

// ProcessDocument handles POST /api/v1/process-document
// @Summary Extract a table from a document
// @Description Upload an image or PDF; the model returns its content as rows.
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document (PDF, JPG, PNG or WEBP)"
// @Param prompt formData string false "Extra extraction instructions"
// @Param headers formData string false "Required column names, comma-separated"
// @Success 200 {object} ProcessDocumentResponse
// @Failure 400 {object} BareErrorResponse
// @Failure 413 {object} BareErrorResponse
// @Failure 502 {object} BareErrorResponse
// @Security BearerAuth
// @Router /process-document [post]
func (h *ConvertHandler) ProcessDocument(c *gin.Context) {
	name, data, err := readUpload(c, "file", h.maxBytes)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}
		bareError(c, err, "Failed to process document")
		return
	}

	out, err := h.extraction.Extract(c.Request.Context(), service.ExtractInput{
		FileName: name,
		Data:     data,
		Hint:     c.PostForm("prompt"),
		Headers:  formHeaders(c),
	})
	if err != nil {
		bareError(c, err, "Failed to process document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": out.Rows})
}

// Chat handles POST /api/v1/chat
// @Summary Ask about or edit a dataset
// @Description Sends the dataset and an instruction to the model. updatedData is present only when the model changed the data.
// @Tags convert
// @Accept json
// @Produce json
// @Param body body ChatRequest true "Instruction, dataset and recent history"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} BareErrorResponse
// @Failure 500 {object} BareErrorResponse
// @Security BearerAuth
// @Router /chat [post]
func (h *ConvertHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rows, err := tableschema.DecodeRows(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	history, err := tableschema.DecodeHistory(req.History)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.edit.Edit(c.Request.Context(), service.EditInput{
		Message: req.Message,
		Rows:    rows,
		History: history,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInstruction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		if errors.Is(err, context.Canceled) {
			c.JSON(StatusClientClosedRequest, gin.H{"error": "Failed to process chat"})
			return
		}
		logError(c, http.StatusInternalServerError, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat"})
		return
	}

	resp := gin.H{"response": out.Reply.Response}
	if out.Reply.HasUpdate {
		resp["updatedData"] = out.Reply.UpdatedData
	}
	c.JSON(http.StatusOK, resp)
}

// bareError writes {"error": msg}. Internal errors use fallback as the message.
func bareError(c *gin.Context, err error, fallback string) {
	status, _, msg := MapDomainError(err)
	logError(c, status, err)
	if status >= 500 && status != http.StatusBadGateway {
		msg = fallback
	}
	c.JSON(status, gin.H{"error": msg})
}
