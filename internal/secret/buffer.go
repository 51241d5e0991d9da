// Package secret provides a guarded buffer for key material and credential
// secrets. The backing memory is wiped on Close and every later read panics,
// so a replaced or released secret cannot be observed again.
//
// On Linux the memory is an anonymous mapping outside the Go heap, locked
// against swap where the process is allowed to and excluded from core dumps.
// Elsewhere it falls back to a heap slice that is still zeroed on Close.
package secret

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNegativeSize is returned when a buffer size is below zero.
var ErrNegativeSize = errors.New("secret: buffer size must not be negative")

// Buffer holds sensitive bytes. A Buffer must not be copied after creation.
type Buffer struct {
	mu     sync.Mutex
	region region
	length int
	closed bool
}

// New allocates a zero-filled buffer of size bytes. A zero size yields an
// empty buffer with no backing region.
func New(size int) (*Buffer, error) {
	if size < 0 {
		return nil, ErrNegativeSize
	}
	if size == 0 {
		return &Buffer{}, nil
	}

	r, err := allocate(size)
	if err != nil {
		return nil, fmt.Errorf("secret: allocate %d bytes: %w", size, err)
	}

	return &Buffer{region: r, length: size}, nil
}

// NewFromBytes copies source into a new buffer and zeroes source in place.
func NewFromBytes(source []byte) (*Buffer, error) {
	buf, err := New(len(source))
	if err != nil {
		return nil, err
	}

	copy(buf.region.data, source)
	Wipe(source)

	return buf, nil
}

// NewFromString copies s into a new buffer. The string itself is immutable
// and stays wherever the runtime put it; callers should drop it promptly.
func NewFromString(s string) (*Buffer, error) {
	buf, err := New(len(s))
	if err != nil {
		return nil, err
	}
	copy(buf.region.data, s)
	return buf, nil
}

// Bytes returns the secret bytes. The slice aliases the guarded region and
// must not be retained past Close. Panics if the buffer is closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.region.data[:b.length]
}

// String returns a heap copy of the secret. Use only at API boundaries
// that require a string. Panics if the buffer is closed.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return string(b.region.data[:b.length])
}

// Len returns the secret length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// Close zeroes the contents and releases the memory. Close is idempotent.
func (b *Buffer) Close() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Wipe(b.region.data)
	err := b.region.release()
	b.region = region{}
	return err
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
