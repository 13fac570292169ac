package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"excellerator/internal/domain"
	"excellerator/internal/gateway"
	"excellerator/internal/middleware"
)

// StatusClientClosedRequest is reported when the caller went away before the
// request finished.
const StatusClientClosedRequest = 499

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var rlErr *gateway.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		return http.StatusTooManyRequests, "MODEL_RATE_LIMITED", "the model provider is rate limiting requests; retry after " + strconv.Itoa(int(math.Ceil(rlErr.RetryAfter.Seconds()))) + "s"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "REQUEST_CANCELED", "the request was canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "MODEL_TIMEOUT", "the model did not answer in time; please try again"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "session not found"
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, "SESSION_BUSY", "another request is already running for this session"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrSocialAuthTokenInvalid):
		return http.StatusUnauthorized, "INVALID_SOCIAL_TOKEN", "social authentication token is invalid or expired"
	case errors.Is(err, domain.ErrSocialAuthEmailMissing):
		return http.StatusUnauthorized, "SOCIAL_EMAIL_MISSING", "the identity provider did not share an email address"
	case errors.Is(err, domain.ErrEmptyFile):
		return http.StatusBadRequest, "MISSING_FILE", "no file provided"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png, webp"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrTooManyPages):
		return http.StatusBadRequest, "TOO_MANY_PAGES", "document has more pages than allowed"
	case errors.Is(err, domain.ErrUnreadableDocument):
		return http.StatusBadRequest, "UNREADABLE_DOCUMENT", "document could not be read"
	case errors.Is(err, domain.ErrMalformedModelOutput):
		return http.StatusBadGateway, "MODEL_OUTPUT_MALFORMED", "the model returned data that could not be read; please try again"
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusBadGateway, "MODEL_UNAVAILABLE", "the model could not be reached; please try again"
	case errors.Is(err, domain.ErrEmptyInstruction):
		return http.StatusBadRequest, "EMPTY_MESSAGE", "message is required"
	case errors.Is(err, domain.ErrRowOutOfRange):
		return http.StatusBadRequest, "ROW_OUT_OF_RANGE", "row index is out of range"
	case errors.Is(err, domain.ErrUnknownColumn):
		return http.StatusBadRequest, "UNKNOWN_COLUMN", "column is not part of the table"
	case errors.Is(err, domain.ErrInvalidCellValue):
		return http.StatusBadRequest, "INVALID_CELL_VALUE", "cell values must be text, numbers, booleans or null"
	case errors.Is(err, domain.ErrInvalidDataset):
		return http.StatusBadRequest, "INVALID_DATASET", "dataset must be an array of flat objects"
	case errors.Is(err, domain.ErrEmptyTable):
		return http.StatusBadRequest, "EMPTY_TABLE", "the table has no rows"
	case errors.Is(err, domain.ErrStorageDisabled):
		return http.StatusNotImplemented, "STORAGE_DISABLED", "object storage is not configured"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	logError(c, status, err)
	RespondError(c, status, code, msg)
}

func logError(c *gin.Context, status int, err error) {
	if status < 500 {
		return
	}
	requestID, _ := c.Get(middleware.ContextKeyRequestID)
	slog.ErrorContext(c.Request.Context(), "request failed",
		"request_id", requestID, "status", status, "error", err)
}

// ownerEmail extracts the caller's email. Returns false if it is missing
// (error response already written).
func ownerEmail(c *gin.Context) (string, bool) {
	email, err := middleware.GetEmail(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return "", false
	}
	return email, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
