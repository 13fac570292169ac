package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"excellerator/internal/config"
	"excellerator/internal/document"
	"excellerator/internal/domain"
	"excellerator/internal/port"
	"excellerator/internal/spreadsheet"
)

// ChatFailureMessage is appended to the transcript when a chat turn cannot
// reach the model.
const ChatFailureMessage = "Sorry, I encountered an error processing your request."

// IngestInput is a document upload for a session.
type IngestInput struct {
	FileName string
	Data     []byte
	Hint     string
	Headers  []string
}

// IngestOutput reports the session after an ingestion. Applied is false when
// the table changed wholesale while the model call was in flight and the
// extracted rows were dropped.
type IngestOutput struct {
	Session    *domain.Session    `json:"session"`
	Conversion *domain.Conversion `json:"conversion"`
	Applied    bool               `json:"applied"`
}

// ChatOutput reports one chat turn. Applied is true when the reply replaced
// the table.
type ChatOutput struct {
	Session *domain.Session `json:"session"`
	Reply   string          `json:"reply"`
	Applied bool            `json:"applied"`
}

// CellEditInput addresses one cell of the session table.
type CellEditInput struct {
	Row    int    `json:"row"`
	Column string `json:"column" binding:"required"`
	Value  any    `json:"value"`
}

// ExportOutput is a rendered download.
type ExportOutput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// EmailExportOutput describes a mailed export link.
type EmailExportOutput struct {
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionService owns the working table and transcript of each user session.
// Sessions are scoped to their owner: another user's session is not found.
type SessionService interface {
	Create(ctx context.Context, owner string) (*domain.Session, error)
	Get(ctx context.Context, owner string, id uuid.UUID) (*domain.Session, error)
	Delete(ctx context.Context, owner string, id uuid.UUID) error
	Ingest(ctx context.Context, owner string, id uuid.UUID, input IngestInput) (*IngestOutput, error)
	Chat(ctx context.Context, owner string, id uuid.UUID, message string) (*ChatOutput, error)
	UpdateCell(ctx context.Context, owner string, id uuid.UUID, input CellEditInput) (*domain.Session, error)
	ClearTable(ctx context.Context, owner string, id uuid.UUID) (*domain.Session, error)
	ImportSpreadsheet(ctx context.Context, owner string, id uuid.UUID, r io.Reader) (*domain.Session, error)
	Export(ctx context.Context, owner string, id uuid.UUID, format domain.ExportFormat) (*ExportOutput, error)
	EmailExport(ctx context.Context, owner string, id uuid.UUID, format domain.ExportFormat) (*EmailExportOutput, error)
}

type sessionService struct {
	store      port.SessionStore
	extraction ExtractionService
	edit       EditService
	convRepo   port.ConversionRepository
	storage    port.ObjectStorage
	mailer     port.ExportMailer
	sessionCfg config.SessionConfig
	storageCfg config.StorageConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	store port.SessionStore,
	extraction ExtractionService,
	edit EditService,
	convRepo port.ConversionRepository,
	storage port.ObjectStorage,
	mailer port.ExportMailer,
	sessionCfg config.SessionConfig,
	storageCfg config.StorageConfig,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		store:      store,
		extraction: extraction,
		edit:       edit,
		convRepo:   convRepo,
		storage:    storage,
		mailer:     mailer,
		sessionCfg: sessionCfg,
		storageCfg: storageCfg,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionService) Create(ctx context.Context, owner string) (*domain.Session, error) {
	session := &domain.Session{
		ID:    uuid.New(),
		Owner: owner,
		Table: domain.NewTable(nil),
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("session.Create: %w", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, owner string, id uuid.UUID) (*domain.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Owner != owner {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// update applies fn to an owned session.
func (s *sessionService) update(ctx context.Context, owner string, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error) {
	return s.store.Update(ctx, id, func(session *domain.Session) error {
		if session.Owner != owner {
			return domain.ErrSessionNotFound
		}
		return fn(session)
	})
}

// acquire marks the session busy for one model-backed flow and returns a
// snapshot taken at that moment.
func (s *sessionService) acquire(ctx context.Context, owner string, id uuid.UUID, fn func(*domain.Session)) (*domain.Session, error) {
	return s.update(ctx, owner, id, func(session *domain.Session) error {
		if session.Busy {
			return domain.ErrSessionBusy
		}
		session.Busy = true
		if fn != nil {
			fn(session)
		}
		return nil
	})
}

// releaseAfterPanic clears the busy flag for a flow that panicked before it
// released the session. fn runs in the same update.
func (s *sessionService) releaseAfterPanic(ctx context.Context, id uuid.UUID, recovered any, fn func(*domain.Session)) {
	s.logger.ErrorContext(ctx, "session: model-backed flow panicked", "session_id", id, "panic", recovered)
	if _, err := s.release(ctx, id, fn); err != nil {
		s.logger.ErrorContext(ctx, "session: releasing after panic", "session_id", id, "error", err)
	}
}

// release clears the busy flag. It runs even when the request was canceled.
func (s *sessionService) release(ctx context.Context, id uuid.UUID, fn func(*domain.Session)) (*domain.Session, error) {
	return s.store.Update(context.WithoutCancel(ctx), id, func(session *domain.Session) error {
		session.Busy = false
		if fn != nil {
			fn(session)
		}
		return nil
	})
}

func (s *sessionService) Ingest(ctx context.Context, owner string, id uuid.UUID, input IngestInput) (*IngestOutput, error) {
	snapshot, err := s.acquire(ctx, owner, id, nil)
	if err != nil {
		return nil, err
	}
	startVersion := snapshot.Version
	released := false
	defer func() {
		if r := recover(); r != nil {
			if !released {
				s.releaseAfterPanic(ctx, id, r, nil)
			}
			panic(r)
		}
	}()

	out, extractErr := s.extraction.Extract(ctx, ExtractInput(input))
	if extractErr != nil {
		released = true
		if _, err := s.release(ctx, id, nil); err != nil {
			s.logger.ErrorContext(ctx, "session.Ingest: releasing session", "session_id", id, "error", err)
		}
		s.recordConversion(ctx, &domain.Conversion{
			OwnerEmail:   owner,
			SessionID:    &id,
			FileName:     input.FileName,
			FileSize:     int64(len(input.Data)),
			Status:       domain.ConversionStatusFailed,
			ErrorMessage: extractErr.Error(),
		})
		return nil, extractErr
	}

	applied := false
	released = true
	session, err := s.release(ctx, id, func(session *domain.Session) {
		if session.Version != startVersion {
			return
		}
		session.Table.Replace(out.Rows)
		session.Version++
		session.SourceName = input.FileName
		applied = true
	})
	if err != nil {
		return nil, fmt.Errorf("session.Ingest: %w", err)
	}
	if !applied {
		s.logger.WarnContext(ctx, "session.Ingest: table changed during extraction, dropping result",
			"session_id", id, "file", input.FileName)
	}

	conv := &domain.Conversion{
		ID:          uuid.New(),
		OwnerEmail:  owner,
		SessionID:   &id,
		FileName:    out.Document.FileName,
		ContentType: out.Document.ContentType,
		FileSize:    out.Document.Size,
		PageCount:   out.Document.PageCount,
		Model:       out.Model,
		RowCount:    len(out.Rows),
		ColumnCount: len(out.Columns),
		Status:      domain.ConversionStatusCompleted,
	}
	conv.ArchiveKey = s.archive(ctx, conv.ID, out.Document, input.Data)
	s.recordConversion(ctx, conv)

	return &IngestOutput{Session: session, Conversion: conv, Applied: applied}, nil
}

// archive stores the original upload when enabled. Failures are logged and
// do not fail the ingestion.
func (s *sessionService) archive(ctx context.Context, convID uuid.UUID, doc *document.Info, data []byte) string {
	if !s.storageCfg.ArchiveUploads {
		return ""
	}
	ext := path.Ext(doc.FileName)
	key := fmt.Sprintf("uploads/%s/%s%s", convID, spreadsheet.SanitizeFilename(strings.TrimSuffix(doc.FileName, ext)), strings.ToLower(ext))
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: doc.ContentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrStorageDisabled) {
			s.logger.ErrorContext(ctx, "session.Ingest: archiving upload", "key", key, "error", err)
		}
		return ""
	}
	return key
}

func (s *sessionService) recordConversion(ctx context.Context, conv *domain.Conversion) {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	if err := s.convRepo.Create(context.WithoutCancel(ctx), conv); err != nil {
		s.logger.ErrorContext(ctx, "session: recording conversion", "file", conv.FileName, "error", err)
	}
}

func (s *sessionService) Chat(ctx context.Context, owner string, id uuid.UUID, message string) (*ChatOutput, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyInstruction
	}

	var history []domain.ChatMessage
	snapshot, err := s.acquire(ctx, owner, id, func(session *domain.Session) {
		history = session.RecentMessages(s.sessionCfg.HistoryWindow)
		session.Messages = append(session.Messages, domain.ChatMessage{
			Role:      domain.ChatRoleUser,
			Content:   message,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	startVersion := snapshot.Version
	released := false
	defer func() {
		if r := recover(); r != nil {
			if !released {
				s.releaseAfterPanic(ctx, id, r, func(session *domain.Session) {
					session.Messages = append(session.Messages, domain.ChatMessage{
						Role:      domain.ChatRoleAssistant,
						Content:   ChatFailureMessage,
						CreatedAt: s.now(),
					})
				})
			}
			panic(r)
		}
	}()

	out, editErr := s.edit.Edit(ctx, EditInput{
		Message: message,
		Rows:    snapshot.Table.Rows,
		History: history,
	})

	applied := false
	stale := false
	released = true
	session, err := s.release(ctx, id, func(session *domain.Session) {
		reply := ChatFailureMessage
		if editErr == nil {
			reply = out.Reply.Response
			if out.Reply.HasUpdate {
				if session.Version == startVersion {
					session.Table.Replace(out.Reply.UpdatedData)
					session.Version++
					applied = true
				} else {
					stale = true
				}
			}
		}
		session.Messages = append(session.Messages, domain.ChatMessage{
			Role:      domain.ChatRoleAssistant,
			Content:   reply,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("session.Chat: %w", err)
	}
	if editErr != nil {
		s.logger.ErrorContext(ctx, "session.Chat: model call failed", "session_id", id, "error", editErr)
		return nil, editErr
	}
	if stale {
		s.logger.WarnContext(ctx, "session.Chat: table changed during the model call, dropping updated data",
			"session_id", id)
	}

	return &ChatOutput{Session: session, Reply: out.Reply.Response, Applied: applied}, nil
}

func (s *sessionService) UpdateCell(ctx context.Context, owner string, id uuid.UUID, input CellEditInput) (*domain.Session, error) {
	return s.update(ctx, owner, id, func(session *domain.Session) error {
		return session.Table.SetCell(input.Row, input.Column, input.Value)
	})
}

func (s *sessionService) ClearTable(ctx context.Context, owner string, id uuid.UUID) (*domain.Session, error) {
	return s.update(ctx, owner, id, func(session *domain.Session) error {
		session.Table.Clear()
		session.Version++
		return nil
	})
}

func (s *sessionService) ImportSpreadsheet(ctx context.Context, owner string, id uuid.UUID, r io.Reader) (*domain.Session, error) {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	rows, err := spreadsheet.Import(r)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, owner, id, func(session *domain.Session) error {
		session.Table.Replace(rows)
		session.Version++
		return nil
	})
}

func (s *sessionService) Export(ctx context.Context, owner string, id uuid.UUID, format domain.ExportFormat) (*ExportOutput, error) {
	session, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if session.Table.IsEmpty() {
		return nil, domain.ErrEmptyTable
	}
	if format == "" {
		format = domain.ExportFormatXLSX
	}

	var buf bytes.Buffer
	switch format {
	case domain.ExportFormatCSV:
		err = spreadsheet.WriteCSV(&buf, session.Table)
	default:
		err = spreadsheet.WriteXLSX(&buf, session.Table)
	}
	if err != nil {
		return nil, fmt.Errorf("session.Export: %w", err)
	}

	return &ExportOutput{
		FileName:    spreadsheet.BuildFilename(session.SourceName, format),
		ContentType: spreadsheet.ContentType(format),
		Data:        buf.Bytes(),
	}, nil
}

func (s *sessionService) EmailExport(ctx context.Context, owner string, id uuid.UUID, format domain.ExportFormat) (*EmailExportOutput, error) {
	export, err := s.Export(ctx, owner, id, format)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s/%s", id, uuid.New(), export.FileName)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(export.Data),
		ContentType: export.ContentType,
		Size:        int64(len(export.Data)),
	}); err != nil {
		if errors.Is(err, domain.ErrStorageDisabled) {
			return nil, err
		}
		return nil, fmt.Errorf("session.EmailExport upload: %w", err)
	}

	expiry := s.storageCfg.PresignExpiry
	url, err := s.storage.GetPresignedURL(ctx, key, expiry)
	if err != nil {
		s.discardExport(ctx, key)
		return nil, fmt.Errorf("session.EmailExport presign: %w", err)
	}
	if err := s.mailer.SendExportLink(ctx, owner, export.FileName, url); err != nil {
		s.discardExport(ctx, key)
		return nil, fmt.Errorf("session.EmailExport send: %w", err)
	}

	s.logger.InfoContext(ctx, "session.EmailExport: link sent", "session_id", id, "key", key)
	return &EmailExportOutput{
		FileName:  export.FileName,
		URL:       url,
		ExpiresAt: s.now().Add(time.Duration(expiry) * time.Second),
	}, nil
}

// discardExport removes an uploaded export whose link was never delivered.
func (s *sessionService) discardExport(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.ErrorContext(ctx, "session.EmailExport: deleting undelivered export", "key", key, "error", err)
	}
}
