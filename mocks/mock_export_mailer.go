package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockExportMailer is a mock implementation of port.ExportMailer.
type MockExportMailer struct {
	mock.Mock
}

func (m *MockExportMailer) SendExportLink(ctx context.Context, toEmail, fileName, downloadURL string) error {
	args := m.Called(ctx, toEmail, fileName, downloadURL)
	return args.Error(0)
}
