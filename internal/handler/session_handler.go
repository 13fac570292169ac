package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"excellerator/internal/domain"
	"excellerator/internal/service"
)

// SessionHandler handles the working-table session endpoints.
type SessionHandler struct {
	sessionService service.SessionService
	maxBytes       int64
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, maxBytes int64) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, maxBytes: maxBytes}
}

// ChatMessageRequest is one chat turn against a session.
type ChatMessageRequest struct {
	Message string `json:"message" binding:"required" example:"What is the total price?"`
}

// Create handles POST /api/v1/sessions
// @Summary Create a session
// @Tags sessions
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), owner)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, session)
}

// GetByID handles GET /api/v1/sessions/:id
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetByID(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), owner, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, session)
}

// Delete handles DELETE /api/v1/sessions/:id
// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), owner, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "session deleted"})
}

// Ingest handles POST /api/v1/sessions/:id/document
// @Summary Extract a document into the session table
// @Description Replaces the session table with the rows extracted from the uploaded document.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Document (PDF, JPG, PNG or WEBP)"
// @Param prompt formData string false "Extra extraction instructions"
// @Param headers formData string false "Required column names, comma-separated"
// @Success 200 {object} IngestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/document [post]
func (h *SessionHandler) Ingest(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	name, data, err := readUpload(c, "file", h.maxBytes)
	if err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.sessionService.Ingest(c.Request.Context(), owner, id, service.IngestInput{
		FileName: name,
		Data:     data,
		Hint:     c.PostForm("prompt"),
		Headers:  formHeaders(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, out)
}

// Chat handles POST /api/v1/sessions/:id/messages
// @Summary Send a chat message
// @Description Asks about or edits the session table. The reply and the updated table are returned.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body ChatMessageRequest true "Chat message"
// @Success 200 {object} ChatTurnResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/messages [post]
func (h *SessionHandler) Chat(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	out, err := h.sessionService.Chat(c.Request.Context(), owner, id, req.Message)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, out)
}

// UpdateCell handles PATCH /api/v1/sessions/:id/cells
// @Summary Edit one cell
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body CellEditRequest true "Cell address and value"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/cells [patch]
func (h *SessionHandler) UpdateCell(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var input service.CellEditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	session, err := h.sessionService.UpdateCell(c.Request.Context(), owner, id, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, session)
}

// ClearTable handles DELETE /api/v1/sessions/:id/table
// @Summary Clear the session table
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/table [delete]
func (h *SessionHandler) ClearTable(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	session, err := h.sessionService.ClearTable(c.Request.Context(), owner, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, session)
}

// Import handles POST /api/v1/sessions/:id/import
// @Summary Load a spreadsheet into the session table
// @Description Reads the first sheet of an xlsx workbook; the first row holds the column names.
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Workbook (.xlsx)"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/import [post]
func (h *SessionHandler) Import(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}

	_, data, err := readUpload(c, "file", h.maxBytes)
	if err != nil {
		HandleError(c, err)
		return
	}

	session, err := h.sessionService.ImportSpreadsheet(c.Request.Context(), owner, id, bytes.NewReader(data))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, session)
}

// Export handles GET /api/v1/sessions/:id/export
// @Summary Download the session table
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param id path string true "Session ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}
	format, ok := exportFormat(c)
	if !ok {
		return
	}

	out, err := h.sessionService.Export(c.Request.Context(), owner, id, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.FileName))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// EmailExport handles POST /api/v1/sessions/:id/export/email
// @Summary Email a download link for the session table
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {object} EmailExportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/{id}/export/email [post]
func (h *SessionHandler) EmailExport(c *gin.Context) {
	owner, id, ok := h.sessionParams(c)
	if !ok {
		return
	}
	format, ok := exportFormat(c)
	if !ok {
		return
	}

	out, err := h.sessionService.EmailExport(c.Request.Context(), owner, id, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, out)
}

func (h *SessionHandler) sessionParams(c *gin.Context) (string, uuid.UUID, bool) {
	owner, ok := ownerEmail(c)
	if !ok {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid session ID")
		return "", uuid.Nil, false
	}
	return owner, id, true
}

func exportFormat(c *gin.Context) (domain.ExportFormat, bool) {
	format, ok := domain.ParseExportFormat(strings.ToLower(c.Query("format")))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return "", false
	}
	return format, true
}
