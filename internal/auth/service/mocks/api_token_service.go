// Package mocks provides mock implementations for testing the auth middleware.
package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockAPITokenService is a mock implementation of APITokenService for testing.
type MockAPITokenService struct {
	mock.Mock
}

// GenerateToken mocks the GenerateToken method of APITokenService.
func (m *MockAPITokenService) GenerateToken() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

// HashToken mocks the HashToken method of APITokenService.
func (m *MockAPITokenService) HashToken(plainToken string) (string, error) {
	args := m.Called(plainToken)
	return args.String(0), args.Error(1)
}

// VerifyToken mocks the VerifyToken method of APITokenService.
func (m *MockAPITokenService) VerifyToken(plainToken string, tokenHash string) bool {
	args := m.Called(plainToken, tokenHash)
	return args.Bool(0)
}

// Fingerprint mocks the Fingerprint method of APITokenService.
func (m *MockAPITokenService) Fingerprint(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}
