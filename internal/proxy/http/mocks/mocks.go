// Package mocks provides mock implementations for testing the proxy HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/credproxy/internal/proxy"
)

// MockProxyClient is a mock implementation of ProxyClient for testing.
type MockProxyClient struct {
	mock.Mock
}

// Status mocks the Status method of ProxyClient.
func (m *MockProxyClient) Status(ctx context.Context) (proxy.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(proxy.Status), args.Error(1)
}

// SetCredsPlaintext mocks the SetCredsPlaintext method of ProxyClient.
func (m *MockProxyClient) SetCredsPlaintext(ctx context.Context, req proxy.SetCredsPlaintext) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// SetCredsEncrypted mocks the SetCredsEncrypted method of ProxyClient.
func (m *MockProxyClient) SetCredsEncrypted(ctx context.Context, password string, bundle []byte) error {
	args := m.Called(ctx, password, bundle)
	return args.Error(0)
}

// Backend mocks the Backend method of ProxyClient.
func (m *MockProxyClient) Backend(ctx context.Context, payload []byte) ([]byte, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
