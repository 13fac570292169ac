package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry of a session transcript.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds one user's working table and chat transcript.
// Sessions live in memory only and expire after a period of inactivity.
// SourceName is the file name of the last ingested document.
type Session struct {
	ID         uuid.UUID     `json:"id"`
	Owner      string        `json:"owner"`
	Table      Table         `json:"table"`
	Messages   []ChatMessage `json:"messages"`
	SourceName string        `json:"source_name,omitempty"`
	Busy       bool          `json:"busy"`
	Version    int64         `json:"version"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Clone returns a deep copy safe to hand out of the session store.
func (s *Session) Clone() *Session {
	out := *s
	out.Table = s.Table.Clone()
	out.Messages = make([]ChatMessage, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// RecentMessages returns up to n of the latest transcript entries.
func (s *Session) RecentMessages(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) == 0 {
		return []ChatMessage{}
	}
	start := len(s.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]ChatMessage, len(s.Messages)-start)
	copy(out, s.Messages[start:])
	return out
}

// Conversion records one extraction attempt. It never holds table data.
type Conversion struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	OwnerEmail   string           `db:"owner_email" json:"owner_email"`
	SessionID    *uuid.UUID       `db:"session_id" json:"session_id,omitempty"`
	FileName     string           `db:"file_name" json:"file_name"`
	ContentType  string           `db:"content_type" json:"content_type"`
	FileSize     int64            `db:"file_size" json:"file_size"`
	PageCount    int              `db:"page_count" json:"page_count"`
	Model        string           `db:"model" json:"model"`
	RowCount     int              `db:"row_count" json:"row_count"`
	ColumnCount  int              `db:"column_count" json:"column_count"`
	Status       ConversionStatus `db:"status" json:"status"`
	ErrorMessage string           `db:"error_message" json:"error_message,omitempty"`
	ArchiveKey   string           `db:"archive_key" json:"archive_key,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
