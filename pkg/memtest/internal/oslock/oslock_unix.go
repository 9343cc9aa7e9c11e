//go:build unix

package oslock

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Unix implements Locker with mlock(2)/munlock(2). SetWorkingSet is a
// no-op: POSIX has no working-set concept.
type Unix struct{}

// New returns the POSIX Locker implementation.
func New() Locker {
	return Unix{}
}

func (Unix) Lock(addr uintptr, length uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)

	if err := unix.Mlock(b); err != nil {
		if errors.Is(err, unix.ENOMEM) || errors.Is(err, unix.EAGAIN) {
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		}

		return fmt.Errorf("mlock: %w", err)
	}

	return nil
}

func (Unix) Unlock(addr uintptr, length uintptr) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)

	if err := unix.Munlock(b); err != nil {
		return fmt.Errorf("munlock: %w", err)
	}

	return nil
}

func (Unix) PageSize() int {
	return unix.Getpagesize()
}

func (Unix) MemlockLimit() (uint64, error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rlim); err != nil {
		return 0, fmt.Errorf("getrlimit RLIMIT_MEMLOCK: %w", err)
	}

	return rlim.Cur, nil
}

func (Unix) SetWorkingSet(uint64, uint64) (func() error, error) {
	return func() error { return nil }, nil
}
