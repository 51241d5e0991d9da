//go:build linux

package secret

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// region is an anonymous private mapping. locked records whether mlock
// succeeded; RLIMIT_MEMLOCK is often tiny in containers, so a failed lock
// leaves the secret unswapped-best-effort rather than failing the caller.
type region struct {
	data   []byte
	locked bool
}

func allocate(size int) (region, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return region{}, fmt.Errorf("mmap: %w", err)
	}

	locked := unix.Mlock(data) == nil

	// MADV_DONTDUMP is advisory; older kernels reject it.
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)

	return region{data: data, locked: locked}, nil
}

func (r region) release() error {
	if r.data == nil {
		return nil
	}

	var firstErr error
	if r.locked {
		if err := unix.Munlock(r.data); err != nil {
			firstErr = fmt.Errorf("secret: munlock: %w", err)
		}
	}
	if err := unix.Munmap(r.data); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("secret: munmap: %w", err)
	}
	return firstErr
}
