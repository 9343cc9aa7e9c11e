package memtest

import (
	"fmt"
	"strings"
)

// Outcome is the result of a single test that ran to completion (as
// opposed to timing out or hitting a setup error, which are carried as
// a TestError instead).
type Outcome struct {
	// Pass is true iff the test observed no mismatch.
	Pass bool

	// Failure is non-nil iff Pass is false.
	Failure *Failure
}

// passOutcome returns the Outcome representing a clean pass.
func passOutcome() Outcome {
	return Outcome{Pass: true}
}

// FailureKind distinguishes the two shapes a Failure can take.
type FailureKind int

const (
	// FailureUnexpectedValue is reported by tests that know the
	// expected value at a single address (e.g. OwnAddressBasic).
	FailureUnexpectedValue FailureKind = iota
	// FailureMismatchedValues is reported by two-region tests, which
	// compare a pair of addresses against each other rather than
	// against a precomputed expectation.
	FailureMismatchedValues
)

// Failure describes a single detected hardware fault.
type Failure struct {
	Kind FailureKind

	// Populated when Kind == FailureUnexpectedValue.
	Address  uint64
	Expected uint64
	Actual   uint64

	// Populated when Kind == FailureMismatchedValues.
	Address1 uint64
	Value1   uint64
	Address2 uint64
	Value2   uint64
}

func unexpectedValueFailure(address, expected, actual uint64) Outcome {
	return Outcome{Failure: &Failure{
		Kind:     FailureUnexpectedValue,
		Address:  address,
		Expected: expected,
		Actual:   actual,
	}}
}

func mismatchedValuesFailure(addr1, v1, addr2, v2 uint64) Outcome {
	return Outcome{Failure: &Failure{
		Kind:     FailureMismatchedValues,
		Address1: addr1,
		Value1:   v1,
		Address2: addr2,
		Value2:   v2,
	}}
}

func (f *Failure) String() string {
	if f == nil {
		return "<nil failure>"
	}

	switch f.Kind {
	case FailureUnexpectedValue:
		return fmt.Sprintf("unexpected value at 0x%x: expected 0x%x, got 0x%x", f.Address, f.Expected, f.Actual)
	case FailureMismatchedValues:
		return fmt.Sprintf("mismatched values: 0x%x=0x%x != 0x%x=0x%x", f.Address1, f.Value1, f.Address2, f.Value2)
	default:
		return "unknown failure"
	}
}

func (o Outcome) String() string {
	if o.Pass {
		return "PASS"
	}

	return "FAIL: " + o.Failure.String()
}

// Report is the outcome of one TestKind's run: either an Outcome (pass
// or fail) or a TestError (timeout or setup error).
type Report struct {
	Kind    TestKind
	Outcome Outcome
	Err     *TestError
}

func passReport(kind TestKind) Report {
	return Report{Kind: kind, Outcome: passOutcome()}
}

func outcomeReport(kind TestKind, o Outcome) Report {
	return Report{Kind: kind, Outcome: o}
}

func errReport(kind TestKind, err *TestError) Report {
	return Report{Kind: kind, Err: err}
}

// Passed reports whether this test passed cleanly (no failure, no
// error).
func (r Report) Passed() bool {
	return r.Err == nil && r.Outcome.Pass
}

func (r Report) String() string {
	if r.Err != nil {
		return r.Err.Error()
	}

	return r.Outcome.String()
}

// ReportList is the result of a full suite run.
type ReportList struct {
	// TestedRegionWords is the length, in words, of the region that was
	// actually exercised (after any lock-controller shrink).
	TestedRegionWords int

	// WasLocked reports whether the region was successfully page-locked
	// for the run.
	WasLocked bool

	Reports []Report
}

// AllPass reports whether every test in the list passed.
func (rl ReportList) AllPass() bool {
	for _, r := range rl.Reports {
		if !r.Passed() {
			return false
		}
	}

	return true
}

// String renders a human-readable, multi-line report, aligning one line
// per test under a header describing the region that was tested.
func (rl ReportList) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tested region: %d words, locked=%t\n", rl.TestedRegionWords, rl.WasLocked)

	width := 0
	for _, r := range rl.Reports {
		if n := len(r.Kind.String()); n > width {
			width = n
		}
	}

	for _, r := range rl.Reports {
		fmt.Fprintf(&b, "Ran Test: %-*s  %s\n", width, r.Kind, r)
	}

	return b.String()
}
