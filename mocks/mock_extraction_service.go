package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"excellerator/internal/domain"
	"excellerator/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, input service.ExtractInput) (*service.ExtractOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExtractOutput), args.Error(1)
}

// MockEditService is a mock implementation of service.EditService.
type MockEditService struct {
	mock.Mock
}

func (m *MockEditService) Edit(ctx context.Context, input service.EditInput) (*service.EditOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EditOutput), args.Error(1)
}

// MockConversionService is a mock implementation of service.ConversionService.
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) List(ctx context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error) {
	args := m.Called(ctx, ownerEmail, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Conversion), args.Int(1), args.Error(2)
}
