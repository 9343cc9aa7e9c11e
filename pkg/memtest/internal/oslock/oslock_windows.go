//go:build windows

package oslock

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Windows implements Locker with VirtualLock/VirtualUnlock and the
// process working-set APIs. This is the one OS family spec.md §4.4
// describes a working-set resize for.
type Windows struct{}

// New returns the Windows Locker implementation.
func New() Locker {
	return Windows{}
}

func (Windows) Lock(addr uintptr, length uintptr) error {
	if err := windows.VirtualLock(addr, length); err != nil {
		if errors.Is(err, windows.ERROR_WORKING_SET_QUOTA) {
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		}

		return fmt.Errorf("VirtualLock: %w", err)
	}

	return nil
}

func (Windows) Unlock(addr uintptr, length uintptr) error {
	if err := windows.VirtualUnlock(addr, length); err != nil {
		return fmt.Errorf("VirtualUnlock: %w", err)
	}

	return nil
}

func (Windows) PageSize() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)

	return int(info.PageSize)
}

func (Windows) MemlockLimit() (uint64, error) {
	// Windows has no memlock rlimit; the working-set maximum plays the
	// same role as the initial shrink cap.
	_, curMax, err := getWorkingSetSize()
	if err != nil {
		return 0, err
	}

	return curMax, nil
}

func (Windows) SetWorkingSet(minBytes, maxBytes uint64) (func() error, error) {
	prevMin, prevMax, err := getWorkingSetSize()
	if err != nil {
		return nil, fmt.Errorf("query working set: %w", err)
	}

	if err := windows.SetProcessWorkingSetSizeEx(windows.CurrentProcess(), uintptr(minBytes), uintptr(maxBytes), 0); err != nil {
		return nil, fmt.Errorf("SetProcessWorkingSetSizeEx: %w", err)
	}

	restore := func() error {
		return windows.SetProcessWorkingSetSizeEx(windows.CurrentProcess(), uintptr(prevMin), uintptr(prevMax), 0)
	}

	return restore, nil
}

func getWorkingSetSize() (minBytes, maxBytes uint64, err error) {
	var min, max uintptr
	if err := windows.GetProcessWorkingSetSize(windows.CurrentProcess(), &min, &max); err != nil {
		return 0, 0, fmt.Errorf("GetProcessWorkingSetSize: %w", err)
	}

	return uint64(min), uint64(max), nil
}
