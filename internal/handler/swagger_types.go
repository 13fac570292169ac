package handler

import (
	"time"

	"github.com/google/uuid"

	"excellerator/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// GoogleLoginRequest represents the Google sign-in request body.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required" example:"eyJhbGciOiJSUzI1NiIsImtpZCI6Ij..."`
}

// RefreshRequest represents the token refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// CellEditRequest represents the cell edit request body.
type CellEditRequest struct {
	Row    int    `json:"row" example:"0"`
	Column string `json:"column" binding:"required" example:"Price"`
	Value  string `json:"value" example:"500"`
}

// --- Response Types ---

// TokenResponse represents the authentication token response.
type TokenResponse struct {
	AccessToken  string    `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string    `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt    time.Time `json:"expires_at" example:"2025-01-15T10:30:00Z"`
}

// IdentityBody represents the signed-in user.
type IdentityBody struct {
	Email    string `json:"email" example:"jane@example.com"`
	Name     string `json:"name" example:"Jane Doe"`
	Picture  string `json:"picture,omitempty" example:"https://lh3.googleusercontent.com/a/photo.jpg"`
	Provider string `json:"provider" example:"google"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Success bool `json:"success" example:"true"`
	Data    struct {
		Message string `json:"message" example:"session deleted"`
	} `json:"data"`
}

// TableBody documents a table: rows are flat objects keyed by column name.
type TableBody struct {
	Rows    []map[string]interface{} `json:"rows"`
	Columns []string                 `json:"columns" example:"Item,Qty,Price"`
}

// ChatMessageBody documents one transcript entry.
type ChatMessageBody struct {
	Role      string    `json:"role" example:"assistant"`
	Content   string    `json:"content" example:"The total price is 40."`
	CreatedAt time.Time `json:"created_at" example:"2025-01-15T10:30:00Z"`
}

// SessionBody documents a working session.
type SessionBody struct {
	ID         uuid.UUID         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Owner      string            `json:"owner" example:"jane@example.com"`
	Table      TableBody         `json:"table"`
	Messages   []ChatMessageBody `json:"messages"`
	Busy       bool              `json:"busy" example:"false"`
	Version    int64             `json:"version" example:"3"`
	SourceName string            `json:"source_name,omitempty" example:"receipt.png"`
	CreatedAt  time.Time         `json:"created_at" example:"2025-01-15T10:30:00Z"`
	UpdatedAt  time.Time         `json:"updated_at" example:"2025-01-15T10:31:00Z"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponse wraps an error response.
type ErrorResponse struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

// BareErrorResponse is the error body of the stateless endpoints.
type BareErrorResponse struct {
	Error string `json:"error" example:"Failed to process document"`
}

// SocialLoginResponse wraps a sign-in result.
type SocialLoginResponse struct {
	Success bool `json:"success" example:"true"`
	Data    struct {
		User   IdentityBody  `json:"user"`
		Tokens TokenResponse `json:"tokens"`
	} `json:"data"`
}

// TokenPairResponse wraps a refreshed token pair.
type TokenPairResponse struct {
	Success bool          `json:"success" example:"true"`
	Data    TokenResponse `json:"data"`
}

// IdentityResponse wraps the signed-in user.
type IdentityResponse struct {
	Success bool         `json:"success" example:"true"`
	Data    IdentityBody `json:"data"`
}

// SessionResponse wraps a session.
type SessionResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    SessionBody `json:"data"`
}

// IngestResponse wraps the result of a document ingestion.
type IngestResponse struct {
	Success bool `json:"success" example:"true"`
	Data    struct {
		Session    SessionBody       `json:"session"`
		Conversion domain.Conversion `json:"conversion"`
		Applied    bool              `json:"applied" example:"true"`
	} `json:"data"`
}

// ChatTurnResponse wraps the result of a chat turn.
type ChatTurnResponse struct {
	Success bool `json:"success" example:"true"`
	Data    struct {
		Session SessionBody `json:"session"`
		Reply   string      `json:"reply" example:"I've updated the price in row 1 to 500."`
		Applied bool        `json:"applied" example:"true"`
	} `json:"data"`
}

// EmailExportResponse wraps a mailed export link.
type EmailExportResponse struct {
	Success bool `json:"success" example:"true"`
	Data    struct {
		FileName  string    `json:"file_name" example:"receipt.xlsx"`
		URL       string    `json:"url" example:"https://excellerator-exports.s3.amazonaws.com/exports/...?X-Amz-Signature=..."`
		ExpiresAt time.Time `json:"expires_at" example:"2025-01-16T10:30:00Z"`
	} `json:"data"`
}

// ConversionListResponse wraps a page of extraction history.
type ConversionListResponse struct {
	Success bool                `json:"success" example:"true"`
	Data    []domain.Conversion `json:"data"`
	Meta    PagMeta             `json:"meta"`
}

// ProcessDocumentResponse is the body of a stateless extraction.
type ProcessDocumentResponse struct {
	Data []map[string]interface{} `json:"data"`
}

// ChatResponse is the body of a stateless chat turn. UpdatedData is present
// only when the dataset changed.
type ChatResponse struct {
	Response    string                   `json:"response" example:"I've updated the price in row 1 to 500."`
	UpdatedData []map[string]interface{} `json:"updatedData,omitempty"`
}
