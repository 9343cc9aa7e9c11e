package memtest

import "time"

// firstCheckpointDelay is the number of iterations the checker lets pass
// before it consults the clock for the first time. Spec.md §4.3: this
// builds a stable per-iteration timing sample before any deadline
// arithmetic is attempted.
const firstCheckpointDelay = 8

// progressEmitThreshold is the minimum forward movement in completed
// fraction, between 0 and 1, that triggers a new progress log line.
const progressEmitThreshold = 0.01

// checkpointBackoffFraction is the fraction of the remaining deadline
// the checker waits before polling the clock again. Polling at 75% of
// what's left yields geometric backoff early and frequent polling near
// the deadline, bounding worst-case overrun to one inter-check interval.
const checkpointBackoffFraction = 0.75

// TimeoutChecker is a per-thread adaptive deadline monitor. check is
// called once per inner iteration of a test; its fast path must stay
// cheap since it defines the test's effective memory bandwidth. One
// instance is created per test when single-threaded, or per worker
// thread when partitioned; instances are never shared.
type TimeoutChecker struct {
	deadline  time.Time
	testStart time.Time

	expectedIter   int64
	completedIter  int64
	nextCheckpoint int64

	lastProgressFraction float64

	logger Logger
}

// newTimeoutChecker creates a checker sharing deadline across every test
// and worker in a run, initialized for a test expected to take
// expectedIter inner iterations.
func newTimeoutChecker(deadline time.Time, expectedIter int64, logger Logger) *TimeoutChecker {
	if logger == nil {
		logger = noopLogger{}
	}

	c := &TimeoutChecker{
		deadline:     deadline,
		testStart:    time.Now(),
		expectedIter: expectedIter,
		logger:       logger,
	}

	if expectedIter > firstCheckpointDelay {
		c.nextCheckpoint = firstCheckpointDelay
	} else {
		c.nextCheckpoint = 1
	}

	return c
}

// check must be called once per inner iteration. It returns a non-nil
// *TestError (always wrapping ErrTimeout) iff the deadline has passed.
func (c *TimeoutChecker) check() *TestError {
	if c.completedIter < c.nextCheckpoint {
		c.completedIter++

		return nil
	}

	c.reportProgress()

	return c.checkTime()
}

func (c *TimeoutChecker) reportProgress() {
	if c.expectedIter <= 0 {
		return
	}

	progress := float64(c.completedIter) / float64(c.expectedIter)
	if progress-c.lastProgressFraction >= progressEmitThreshold {
		c.logger.Printf("memtest: progress %.0f%% (%d/%d iterations)", progress*100, c.completedIter, c.expectedIter)
		c.lastProgressFraction = progress
	}
}

// checkTime is the slow path: consult the clock, and if time remains,
// predict the next checkpoint from the observed average iteration
// duration so far.
func (c *TimeoutChecker) checkTime() *TestError {
	now := time.Now()
	if !now.Before(c.deadline) {
		return NewTimeoutError()
	}

	remaining := c.deadline.Sub(now)
	intervalUntilNextCheck := time.Duration(float64(remaining) * checkpointBackoffFraction)

	// completedIter == 0 here is impossible by construction: the first
	// checkpoint is always >= 1, so at least one iteration has elapsed
	// by the time the slow path runs.
	avgIterDuration := now.Sub(c.testStart) / time.Duration(c.completedIter)

	iterUntilNext := int64(1)
	if avgIterDuration > 0 {
		iterUntilNext = int64(intervalUntilNextCheck / avgIterDuration)
	}

	if iterUntilNext < 1 {
		iterUntilNext = 1
	}

	c.nextCheckpoint += iterUntilNext
	c.completedIter++

	return nil
}
