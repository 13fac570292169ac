package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"excellerator/internal/domain"
)

// MockConversionRepo is a mock implementation of port.ConversionRepository.
type MockConversionRepo struct {
	mock.Mock
}

func (m *MockConversionRepo) Create(ctx context.Context, conversion *domain.Conversion) error {
	args := m.Called(ctx, conversion)
	return args.Error(0)
}

func (m *MockConversionRepo) ListByOwner(ctx context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error) {
	args := m.Called(ctx, ownerEmail, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Conversion), args.Int(1), args.Error(2)
}
