package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docproc/internal/document"
	"docproc/internal/port"
)

// MockDocumentEngine is a mock implementation of port.DocumentEngine.
type MockDocumentEngine struct {
	mock.Mock
}

func (m *MockDocumentEngine) Convert(ctx context.Context, path string) (*document.Document, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocumentEngine) Options() port.EngineOptions {
	args := m.Called()
	return args.Get(0).(port.EngineOptions)
}

// MockEngineFactory is a mock implementation of port.EngineFactory.
type MockEngineFactory struct {
	mock.Mock
}

func (m *MockEngineFactory) Build(ctx context.Context, opts port.EngineOptions) (port.DocumentEngine, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.DocumentEngine), args.Error(1)
}

func (m *MockEngineFactory) DefaultOptions() port.EngineOptions {
	args := m.Called()
	return args.Get(0).(port.EngineOptions)
}
