package memtest

import (
	"errors"
	"fmt"
)

// Sentinel errors. Classify with errors.Is; wrapped errors carry
// additional context via fmt.Errorf's %w.
var (
	// ErrLockFailed indicates the region could not be page-locked when
	// locking was required, either because the OS call failed outright
	// or because a Resizable shrink retried down to zero words.
	ErrLockFailed = errors.New("memtest: lock failed")

	// ErrOther covers setup failures that are not lock-related:
	// insufficient region size, iteration-count overflow, a panicking
	// worker, or an unexpected OS failure.
	ErrOther = errors.New("memtest: error")

	// ErrTimeout indicates a test did not complete before the shared
	// deadline elapsed.
	ErrTimeout = errors.New("memtest: timeout")

	// ErrInsufficientRegion indicates the region is smaller than
	// MinRegionWords.
	ErrInsufficientRegion = fmt.Errorf("%w: insufficient region", ErrOther)

	// ErrInsufficientForSplit indicates a two-region test was asked to
	// run on a region shorter than 2 words.
	ErrInsufficientForSplit = fmt.Errorf("%w: insufficient region for two-regions test", ErrOther)

	// ErrIterationOverflow indicates the expected-iteration count for a
	// test would overflow a 64-bit integer.
	ErrIterationOverflow = fmt.Errorf("%w: iteration count overflow", ErrOther)

	// ErrWorkerPanic indicates a worker goroutine panicked while
	// executing its chunk of a test.
	ErrWorkerPanic = fmt.Errorf("%w: thread panicked", ErrOther)
)

// TestError is the error type carried by Report.Err for a single test.
// It always wraps ErrTimeout or ErrOther so callers can classify it with
// errors.Is without inspecting a tagged union.
type TestError struct {
	cause error
}

// NewTimeoutError returns a TestError wrapping ErrTimeout.
func NewTimeoutError() *TestError {
	return &TestError{cause: ErrTimeout}
}

// NewOtherError returns a TestError wrapping ErrOther with additional
// context.
func NewOtherError(context string) *TestError {
	return &TestError{cause: fmt.Errorf("%w: %s", ErrOther, context)}
}

// wrapTestError wraps an arbitrary cause as an ErrOther-classified
// TestError, preserving the original error for errors.Is/As chains.
func wrapTestError(cause error) *TestError {
	return &TestError{cause: fmt.Errorf("%w: %w", ErrOther, cause)}
}

func (e *TestError) Error() string {
	if e == nil {
		return "<nil>"
	}

	return e.cause.Error()
}

func (e *TestError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// IsTimeout reports whether e is a timeout.
func (e *TestError) IsTimeout() bool {
	return e != nil && errors.Is(e.cause, ErrTimeout)
}

// SuiteError is returned by Suite.Run for setup failures that abort the
// whole run before any test is attempted.
type SuiteError struct {
	cause error
}

func newLockFailedError(context string) *SuiteError {
	return &SuiteError{cause: fmt.Errorf("%w: %s", ErrLockFailed, context)}
}

func newSetupError(context string) *SuiteError {
	return &SuiteError{cause: fmt.Errorf("%w: %s", ErrOther, context)}
}

func (e *SuiteError) Error() string {
	if e == nil {
		return "<nil>"
	}

	return e.cause.Error()
}

func (e *SuiteError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}
