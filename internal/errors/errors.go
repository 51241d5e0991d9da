// Package errors holds the sentinel errors shared by the proxy, vault and
// credential stores. Callers wrap a sentinel with context; Kind recovers it
// so the HTTP and metrics layers can classify a failure without string
// matching.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no credential bundle is stored.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request, key, salt or ciphertext failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a missing or wrong API token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotReady indicates the proxy holds no unlocked credentials.
	ErrNotReady = errors.New("not ready")

	// ErrUnavailable indicates an upstream dependency (backend, store) failed.
	ErrUnavailable = errors.New("unavailable")
)

// kinds is ordered; the first sentinel found in the chain wins.
var kinds = []error{ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrNotReady, ErrUnavailable}

// Kind returns the sentinel err wraps, or nil for nil and unclassified errors.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// New returns an error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message and keeps it in the chain. Wrap(nil, ...) is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
