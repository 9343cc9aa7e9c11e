// Package oslock is the OS-polymorphic page-locking boundary described
// in spec.md §4.4 and §9: a small capability set implemented once per
// target OS family, keeping raw syscalls out of the rest of the memtest
// package. Grounded on the teacher's pkg/fs.FS / pkg/fs.Real split
// (a thin interface plus a single concrete implementation per
// environment), retargeted from file I/O to page locking.
package oslock

import "errors"

// ErrQuotaExceeded is returned by Lock when the failure is specifically
// a working-set/memlock quota failure — the only failure Resizable mode
// may retry past by shrinking the region, per spec.md §4.4.
var ErrQuotaExceeded = errors.New("oslock: quota exceeded")

// Locker is the capability set the shrink-and-retry driver in
// pkg/memtest needs from the host OS. addr/length describe the region
// as a raw (base address, byte length) pair so this package never needs
// to know memtest's Region representation.
type Locker interface {
	// Lock page-locks the length bytes starting at addr.
	Lock(addr uintptr, length uintptr) error

	// Unlock releases a region locked by Lock. Safe to call with the
	// same (addr, length) Lock was called with. Errors are for the
	// caller to log only; per spec.md §4.4 unlock failures are never
	// surfaced.
	Unlock(addr uintptr, length uintptr) error

	// PageSize returns the host's page size in bytes.
	PageSize() int

	// MemlockLimit returns the current process's memlock resource
	// limit in bytes, used as the first-shrink cap in Resizable mode.
	MemlockLimit() (uint64, error)

	// SetWorkingSet requests new min/max working-set sizes in bytes. A
	// no-op returning (func() error, nil) on OS families without a
	// working-set concept (everything but Windows).
	SetWorkingSet(minBytes, maxBytes uint64) (restore func() error, err error)
}
