// Package mocks provides mock implementations of credential store interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBlobStore is a mock implementation of usecase.BlobStore.
type MockBlobStore struct {
	mock.Mock
}

// Put mocks the Put method of BlobStore.
func (m *MockBlobStore) Put(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Get mocks the Get method of BlobStore.
func (m *MockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockCredentialStore is a mock implementation of usecase.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// Save mocks the Save method of CredentialStore.
func (m *MockCredentialStore) Save(ctx context.Context, bundleJSON []byte) error {
	args := m.Called(ctx, bundleJSON)
	return args.Error(0)
}

// Load mocks the Load method of CredentialStore.
func (m *MockCredentialStore) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
