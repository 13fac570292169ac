package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excellerator/internal/domain"
	"excellerator/internal/gateway"
	"excellerator/internal/handler"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"canceled", fmt.Errorf("extract.Extract: %w", context.Canceled), handler.StatusClientClosedRequest, "REQUEST_CANCELED"},
		{"deadline", fmt.Errorf("edit.Edit: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "MODEL_TIMEOUT"},
		{"rate limited", gateway.NewRateLimitError("gemini", errors.New("429"), 30), http.StatusTooManyRequests, "MODEL_RATE_LIMITED"},
		{"busy", domain.ErrSessionBusy, http.StatusConflict, "SESSION_BUSY"},
		{"model unavailable", fmt.Errorf("edit.Edit: %w: %w", domain.ErrModelUnavailable, errors.New("dial")), http.StatusBadGateway, "MODEL_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := handler.MapDomainError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestHandleError_CanceledRequestIsNotInternal(t *testing.T) {
	c, w := newContext(httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	handler.HandleError(c, fmt.Errorf("session.Ingest: %w", context.Canceled))

	assert.Equal(t, handler.StatusClientClosedRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "REQUEST_CANCELED", resp.Error.Code)
}
