package services

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStoreFactory struct {
	mock.Mock
}

func (m *MockStoreFactory) NewStore(ctx context.Context, cfg Configuration) (ObjectStore, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ObjectStore), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) VerifyAccess(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockObjectStore) List(ctx context.Context, prefix, delimiter string) (ListResult, error) {
	args := m.Called(ctx, prefix, delimiter)
	return args.Get(0).(ListResult), args.Error(1)
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, body, size, contentType).Error(0)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockObjectStore) Head(ctx context.Context, key string) (ObjectSummary, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(ObjectSummary), args.Error(1)
}
