// Package mocks provides mock implementations of transport interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/credproxy/internal/transport"
)

// MockSender is a mock implementation of transport.Sender.
type MockSender struct {
	mock.Mock
}

// Send mocks the Send method of Sender.
func (m *MockSender) Send(ctx context.Context, req *transport.Request) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
