package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"excellerator/internal/domain"
	"excellerator/internal/service"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, owner string) (*domain.Session, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, owner string, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockSessionService) Ingest(ctx context.Context, owner string, id uuid.UUID, input service.IngestInput) (*service.IngestOutput, error) {
	args := m.Called(ctx, owner, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestOutput), args.Error(1)
}

func (m *MockSessionService) Chat(ctx context.Context, owner string, id uuid.UUID, message string) (*service.ChatOutput, error) {
	args := m.Called(ctx, owner, id, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatOutput), args.Error(1)
}

func (m *MockSessionService) UpdateCell(ctx context.Context, owner string, id uuid.UUID, input service.CellEditInput) (*domain.Session, error) {
	args := m.Called(ctx, owner, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionService) ClearTable(ctx context.Context, owner string, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionService) ImportSpreadsheet(ctx context.Context, owner string, id uuid.UUID, r io.Reader) (*domain.Session, error) {
	args := m.Called(ctx, owner, id, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionService) Export(ctx context.Context, owner string, id uuid.UUID, format domain.ExportFormat) (*service.ExportOutput, error) {
	args := m.Called(ctx, owner, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportOutput), args.Error(1)
}

func (m *MockSessionService) EmailExport(ctx context.Context, owner string, id uuid.UUID, format domain.ExportFormat) (*service.EmailExportOutput, error) {
	args := m.Called(ctx, owner, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EmailExportOutput), args.Error(1)
}
