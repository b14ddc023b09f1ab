package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docproc/internal/port"
)

// MockResultStore is a mock implementation of port.ResultStore.
type MockResultStore struct {
	mock.Mock
}

func (m *MockResultStore) Put(ctx context.Context, obj port.ArchivedObject) (*port.StoredObject, error) {
	args := m.Called(ctx, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.StoredObject), args.Error(1)
}

func (m *MockResultStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockResultStore) DownloadURL(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, downloadName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockResultStore) CheckBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
