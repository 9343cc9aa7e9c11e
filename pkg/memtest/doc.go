// Package memtest provides a user-space RAM integrity tester.
//
// It exercises an already-allocated, word-aligned memory region with a
// battery of well-known patterns (own-address, complements, arithmetic
// and bitwise read-modify-write, solid bits, checkerboard, block
// sequence) designed to elicit hardware faults such as stuck bits,
// coupling faults, and address decoder errors. Each test reports its
// own outcome (pass, fail with the offending address/value, timeout, or
// setup error) under a single wall-clock deadline shared by the whole
// run.
//
// # Basic usage
//
//	buf := make([]uint64, 1<<20) // caller owns the backing storage
//	region := memtest.NewRegion(buf)
//	suite := memtest.BuildSuiteRandom(memtest.SuiteConfig{
//	    Timeout:  30 * time.Second,
//	    LockMode: memtest.Disabled,
//	})
//	reports, err := suite.Run(region)
//	if err != nil {
//	    // setup error: insufficient region, lock failure, ...
//	}
//	fmt.Print(reports)
//	if !reports.AllPass() {
//	    os.Exit(1)
//	}
//
// # Concurrency
//
// Run borrows the region exclusively for the duration of the run; no
// other goroutine may read or write it concurrently. When
// SuiteConfig.AllowMultithread is set, each test is partitioned across
// disjoint, non-overlapping chunks run by independent workers; workers
// never share mutable state and are joined before the next test starts.
//
// # Error handling
//
// Locking failures abort the run before any test runs and are returned
// as a *SuiteError wrapping ErrLockFailed. Per-test failures (including
// timeouts) never abort the run; they are recorded in the
// corresponding Report and the next test still executes, unless
// AllowEarlyTermination is set and a prior test already reported a
// hardware failure.
package memtest
