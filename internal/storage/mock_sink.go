package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSink is a mock implementation of the Sink interface for testing.
type MockSink struct {
	mock.Mock
}

// Save is the mock implementation of the Save method.
func (m *MockSink) Save(ctx context.Context, name string, data []byte, contentType string) error {
	args := m.Called(ctx, name, data, contentType)
	return args.Error(0) //nolint:wrapcheck
}

// Close is the mock implementation of the Close method.
func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0) //nolint:wrapcheck
}
