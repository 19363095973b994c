package testing

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a testify mock of the state object store.
type MockObjectStore struct {
	mock.Mock
}

// GetObject returns the object stored under key. The first return value may
// be a func(ctx, bucket, key) []byte evaluated on every call.
func (m *MockObjectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)
	if fn, ok := args.Get(0).(func(context.Context, string, string) []byte); ok {
		return fn(ctx, bucket, key), args.Error(1)
	}
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

// PutObject stores body under key.
func (m *MockObjectStore) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	args := m.Called(ctx, bucket, key, body)
	return args.Error(0)
}

// DeleteObject removes key.
func (m *MockObjectStore) DeleteObject(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}
