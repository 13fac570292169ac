package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"excellerator/internal/coerce"
	"excellerator/internal/config"
	"excellerator/internal/document"
	"excellerator/internal/domain"
	"excellerator/internal/logging"
	"excellerator/internal/port"
	"excellerator/internal/repository/memory"
	"excellerator/internal/service"
	"excellerator/internal/spreadsheet"
	"excellerator/mocks"
)

const owner = "jane@example.com"

type sessionFixture struct {
	svc        service.SessionService
	store      port.SessionStore
	extraction *mocks.MockExtractionService
	edit       *mocks.MockEditService
	convRepo   *mocks.MockConversionRepo
	storage    *mocks.MockObjectStorage
	mailer     *mocks.MockExportMailer
}

func newSessionFixture(t *testing.T, storageCfg config.StorageConfig) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		store:      memory.NewSessionStore(),
		extraction: new(mocks.MockExtractionService),
		edit:       new(mocks.MockEditService),
		convRepo:   new(mocks.MockConversionRepo),
		storage:    new(mocks.MockObjectStorage),
		mailer:     new(mocks.MockExportMailer),
	}
	f.convRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Conversion")).Return(nil).Maybe()
	f.svc = service.NewSessionService(
		f.store, f.extraction, f.edit, f.convRepo, f.storage, f.mailer,
		config.SessionConfig{HistoryWindow: 5},
		storageCfg,
		logging.Nop(),
	)
	return f
}

func (f *sessionFixture) sessionWith(t *testing.T, rows ...domain.Row) uuid.UUID {
	t.Helper()
	sess, err := f.svc.Create(context.Background(), owner)
	require.NoError(t, err)
	if len(rows) > 0 {
		_, err = f.store.Update(context.Background(), sess.ID, func(s *domain.Session) error {
			s.Table.Replace(rows)
			return nil
		})
		require.NoError(t, err)
	}
	return sess.ID
}

func TestSession_OwnerScoping(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "mallory@example.com", id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = f.svc.ClearTable(ctx, "mallory@example.com", id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "mallory@example.com", id), domain.ErrSessionNotFound)
	require.NoError(t, f.svc.Delete(ctx, owner, id))
	_, err = f.svc.Get(ctx, owner, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSession_IngestReplacesTable(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("Old", "x"))
	rows := []domain.Row{domain.NewRow("Item", "Widget", "Qty", 3)}
	f.extraction.On("Extract", mock.Anything, mock.MatchedBy(func(in service.ExtractInput) bool {
		return in.FileName == "scan.png" && in.Hint == "totals"
	})).Return(&service.ExtractOutput{
		Rows:     rows,
		Columns:  []string{"Item", "Qty"},
		Model:    "gemini-2.0-flash",
		Document: &document.Info{FileName: "scan.png", ContentType: "image/png", Size: 3, PageCount: 1},
	}, nil)

	out, err := f.svc.Ingest(context.Background(), owner, id, service.IngestInput{
		FileName: "scan.png", Data: []byte("png"), Hint: "totals",
	})

	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, []string{"Item", "Qty"}, out.Session.Table.Columns)
	assert.Equal(t, "scan.png", out.Session.SourceName)
	assert.False(t, out.Session.Busy)
	assert.Equal(t, domain.ConversionStatusCompleted, out.Conversion.Status)
	assert.Equal(t, 1, out.Conversion.RowCount)
	assert.Empty(t, out.Conversion.ArchiveKey)
	f.convRepo.AssertNumberOfCalls(t, "Create", 1)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestSession_IngestFailureLeavesTable(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("Old", "x"))
	f.extraction.On("Extract", mock.Anything, mock.Anything).Return(nil, domain.ErrMalformedModelOutput)

	_, err := f.svc.Ingest(context.Background(), owner, id, service.IngestInput{FileName: "scan.png", Data: []byte("png")})

	assert.ErrorIs(t, err, domain.ErrMalformedModelOutput)
	sess, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Old"}, sess.Table.Columns)
	assert.False(t, sess.Busy)
	f.convRepo.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversion) bool {
		return c.Status == domain.ConversionStatusFailed && c.FileName == "scan.png"
	}))
}

func TestSession_IngestArchivesUpload(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{ArchiveUploads: true})
	id := f.sessionWith(t)
	f.extraction.On("Extract", mock.Anything, mock.Anything).Return(&service.ExtractOutput{
		Rows:     []domain.Row{domain.NewRow("A", "1")},
		Columns:  []string{"A"},
		Document: &document.Info{FileName: "My Scan.PNG", ContentType: "image/png", Size: 3, PageCount: 1},
	}, nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.ContentType == "image/png" && in.Size == 3
	})).Return(&port.UploadOutput{Key: "k"}, nil)

	out, err := f.svc.Ingest(context.Background(), owner, id, service.IngestInput{FileName: "My Scan.PNG", Data: []byte("png")})

	require.NoError(t, err)
	assert.Regexp(t, `^uploads/[0-9a-f-]+/My_Scan\.png$`, out.Conversion.ArchiveKey)
}

func TestSession_ChatQuestionLeavesTableUnchanged(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("Price", 10), domain.NewRow("Price", 30))
	f.edit.On("Edit", mock.Anything, mock.Anything).Return(&service.EditOutput{
		Reply: coerce.ChatReply{Response: "The total is 40."},
	}, nil)

	out, err := f.svc.Chat(context.Background(), owner, id, "What is the total?")

	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, "The total is 40.", out.Reply)
	assert.Len(t, out.Session.Table.Rows, 2)
	require.Len(t, out.Session.Messages, 2)
	assert.Equal(t, domain.ChatRoleUser, out.Session.Messages[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, out.Session.Messages[1].Role)
	assert.Equal(t, int64(0), out.Session.Version)
}

func TestSession_ChatUpdateReplacesWholesale(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("Name", "Jon", "Price", 10))
	f.edit.On("Edit", mock.Anything, mock.Anything).Return(&service.EditOutput{
		Reply: coerce.ChatReply{
			Response:    "Done.",
			HasUpdate:   true,
			UpdatedData: []domain.Row{domain.NewRow("Name", "John")},
		},
	}, nil)

	out, err := f.svc.Chat(context.Background(), owner, id, "fix the name and drop price")

	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, []string{"Name"}, out.Session.Table.Columns)
	assert.Equal(t, int64(1), out.Session.Version)
}

func TestSession_ChatSendsPriorHistoryWindow(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t)
	_, err := f.store.Update(context.Background(), id, func(s *domain.Session) error {
		for i := 0; i < 8; i++ {
			s.Messages = append(s.Messages, domain.ChatMessage{Role: domain.ChatRoleUser, Content: "old"})
		}
		return nil
	})
	require.NoError(t, err)
	f.edit.On("Edit", mock.Anything, mock.MatchedBy(func(in service.EditInput) bool {
		return len(in.History) == 5 && in.Message == "next"
	})).Return(&service.EditOutput{Reply: coerce.ChatReply{Response: "ok"}}, nil)

	_, err = f.svc.Chat(context.Background(), owner, id, "next")

	require.NoError(t, err)
	f.edit.AssertExpectations(t)
}

func TestSession_ChatFailureAppendsApology(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.edit.On("Edit", mock.Anything, mock.Anything).Return(nil, domain.ErrModelUnavailable)

	_, err := f.svc.Chat(context.Background(), owner, id, "change A to 2")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	sess, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, service.ChatFailureMessage, sess.Messages[1].Content)
	v, _ := sess.Table.Rows[0].Get("A")
	assert.Equal(t, "1", v)
	assert.False(t, sess.Busy)
}

func TestSession_ChatEmptyMessage(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t)

	_, err := f.svc.Chat(context.Background(), owner, id, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyInstruction)
}

func TestSession_BusyGuard(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t)
	started := make(chan struct{})
	finish := make(chan struct{})
	f.edit.On("Edit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-finish
	}).Return(&service.EditOutput{Reply: coerce.ChatReply{Response: "ok"}}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Chat(context.Background(), owner, id, "first")
		done <- err
	}()
	<-started

	_, err := f.svc.Chat(context.Background(), owner, id, "second")
	assert.ErrorIs(t, err, domain.ErrSessionBusy)
	_, err = f.svc.Ingest(context.Background(), owner, id, service.IngestInput{FileName: "a.png"})
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	close(finish)
	require.NoError(t, <-done)
	sess, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, sess.Busy)
}

func TestSession_ClearDuringChatDropsUpdate(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.edit.On("Edit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		_, err := f.svc.ClearTable(context.Background(), owner, id)
		require.NoError(t, err)
	}).Return(&service.EditOutput{Reply: coerce.ChatReply{
		Response:    "Updated.",
		HasUpdate:   true,
		UpdatedData: []domain.Row{domain.NewRow("A", "2")},
	}}, nil)

	out, err := f.svc.Chat(context.Background(), owner, id, "set A to 2")

	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.True(t, out.Session.Table.IsEmpty())
	assert.Len(t, out.Session.Messages, 2)
}

func TestSession_UpdateCell(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("Item", "Widget", "Qty", 3))
	ctx := context.Background()

	sess, err := f.svc.UpdateCell(ctx, owner, id, service.CellEditInput{Row: 0, Column: "Qty", Value: "4"})
	require.NoError(t, err)
	v, _ := sess.Table.Rows[0].Get("Qty")
	assert.Equal(t, "4", v)
	assert.Equal(t, int64(0), sess.Version)

	_, err = f.svc.UpdateCell(ctx, owner, id, service.CellEditInput{Row: 0, Column: "Price", Value: "1"})
	assert.ErrorIs(t, err, domain.ErrUnknownColumn)
	_, err = f.svc.UpdateCell(ctx, owner, id, service.CellEditInput{Row: 5, Column: "Qty", Value: "1"})
	assert.ErrorIs(t, err, domain.ErrRowOutOfRange)
}

func TestSession_ExportAndImport(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("Item", "Widget", "Qty", 3))
	ctx := context.Background()
	_, err := f.store.Update(ctx, id, func(s *domain.Session) error {
		s.SourceName = "March receipts.pdf"
		return nil
	})
	require.NoError(t, err)

	out, err := f.svc.Export(ctx, owner, id, domain.ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "March_receipts.xlsx", out.FileName)
	assert.Equal(t, spreadsheet.XLSXContentType, out.ContentType)

	other := f.sessionWith(t)
	sess, err := f.svc.ImportSpreadsheet(ctx, owner, other, bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Qty"}, sess.Table.Columns)
	assert.Equal(t, int64(1), sess.Version)
}

func TestSession_ExportEmptyTable(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t)

	_, err := f.svc.Export(context.Background(), owner, id, domain.ExportFormatCSV)
	assert.ErrorIs(t, err, domain.ErrEmptyTable)
}

func TestSession_EmailExport(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{PresignExpiry: 600})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.ContentType == spreadsheet.CSVContentType
	})).Return(&port.UploadOutput{}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, mock.AnythingOfType("string"), int64(600)).
		Return("https://bucket.example/export.csv", nil)
	f.mailer.On("SendExportLink", mock.Anything, owner, "excellerator-export.csv", "https://bucket.example/export.csv").Return(nil)

	out, err := f.svc.EmailExport(context.Background(), owner, id, domain.ExportFormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/export.csv", out.URL)
	f.mailer.AssertExpectations(t)
}

func TestSession_EmailExportStorageDisabled(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrStorageDisabled)

	_, err := f.svc.EmailExport(context.Background(), owner, id, domain.ExportFormatXLSX)

	assert.ErrorIs(t, err, domain.ErrStorageDisabled)
	f.mailer.AssertNotCalled(t, "SendExportLink", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_IngestCanceledContext(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	ctx, cancel := context.WithCancel(context.Background())
	f.extraction.On("Extract", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	_, err := f.svc.Ingest(ctx, owner, id, service.IngestInput{FileName: "a.png"})

	assert.True(t, errors.Is(err, context.Canceled))
	sess, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, sess.Busy)
	assert.Len(t, sess.Table.Rows, 1)
}

func TestSession_ChatPanicReleasesSession(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.edit.On("Edit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("provider exploded")
	}).Return(nil, nil).Once()
	f.edit.On("Edit", mock.Anything, mock.Anything).
		Return(&service.EditOutput{Reply: coerce.ChatReply{Response: "ok"}}, nil).Once()

	assert.PanicsWithValue(t, "provider exploded", func() {
		_, _ = f.svc.Chat(context.Background(), owner, id, "change A to 2")
	})

	sess, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, sess.Busy)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, domain.ChatRoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, service.ChatFailureMessage, sess.Messages[1].Content)

	out, err := f.svc.Chat(context.Background(), owner, id, "again")
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Reply)
}

func TestSession_IngestPanicReleasesSession(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.extraction.On("Extract", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("decoder exploded")
	}).Return(nil, nil)

	assert.Panics(t, func() {
		_, _ = f.svc.Ingest(context.Background(), owner, id, service.IngestInput{FileName: "a.pdf"})
	})

	sess, err := f.svc.Get(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, sess.Busy)
	assert.Len(t, sess.Table.Rows, 1)
}

func TestSession_EmailExportSendFailureDeletesObject(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{PresignExpiry: 600})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	var uploaded string
	f.storage.On("Upload", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		uploaded = args.Get(1).(port.UploadInput).Key
	}).Return(&port.UploadOutput{}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, mock.AnythingOfType("string"), int64(600)).
		Return("https://bucket.example/export.csv", nil)
	f.mailer.On("SendExportLink", mock.Anything, owner, mock.Anything, mock.Anything).
		Return(errors.New("ses throttled"))
	f.storage.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := f.svc.EmailExport(context.Background(), owner, id, domain.ExportFormatCSV)

	require.Error(t, err)
	require.NotEmpty(t, uploaded)
	f.storage.AssertCalled(t, "Delete", mock.Anything, uploaded)
}

func TestSession_EmailExportPresignFailureDeletesObject(t *testing.T) {
	f := newSessionFixture(t, config.StorageConfig{PresignExpiry: 600})
	id := f.sessionWith(t, domain.NewRow("A", "1"))
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, mock.AnythingOfType("string"), int64(600)).
		Return("", errors.New("presign failed"))
	f.storage.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := f.svc.EmailExport(context.Background(), owner, id, domain.ExportFormatXLSX)

	require.Error(t, err)
	f.storage.AssertNumberOfCalls(t, "Delete", 1)
	f.mailer.AssertNotCalled(t, "SendExportLink", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
