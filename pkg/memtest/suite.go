package memtest

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"time"
)

// Suite runs a configured, ordered list of TestKind against a region.
// Construct one with BuildSuite or BuildSuiteRandom.
type Suite struct {
	cfg   SuiteConfig
	kinds []TestKind
}

// BuildSuite constructs a Suite that runs kinds in the given order.
func BuildSuite(cfg SuiteConfig, kinds []TestKind) *Suite {
	cp := make([]TestKind, len(kinds))
	copy(cp, kinds)

	return &Suite{cfg: cfg, kinds: cp}
}

// BuildSuiteRandom constructs a Suite over all 13 kinds in a uniformly
// shuffled order, to avoid correlated test artifacts on suspect
// hardware (spec.md §4.5).
func BuildSuiteRandom(cfg SuiteConfig) *Suite {
	kinds := AllTestKinds()

	r := rand.New(rand.NewPCG(newShuffleSeed(), newShuffleSeed()))
	r.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	return &Suite{cfg: cfg, kinds: kinds}
}

func newShuffleSeed() uint64 {
	var buf [8]byte
	if _, err := cryptoRandRead(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}

	return bytesToUint64(buf)
}

// Run executes every configured test against region in order, returning
// the assembled ReportList. region is borrowed exclusively for the
// duration of the call; by the time Run returns (successfully or not)
// any lock taken on it has been released.
func (s *Suite) Run(region *Region) (ReportList, *SuiteError) {
	if region.Len() < MinRegionWords {
		return ReportList{}, newSetupError("insufficient region")
	}

	deadline := time.Now().Add(s.cfg.Timeout)

	lc := newLockController()

	locked, err := lc.acquire(region, s.cfg)
	if err != nil {
		return ReportList{}, err
	}
	defer lc.release(locked, s.cfg)

	testedRegion := locked.region

	rl := ReportList{
		TestedRegionWords: testedRegion.Len(),
		WasLocked:         locked.wasLocked,
	}

	for _, kind := range s.kinds {
		report := s.runOne(testedRegion, kind, deadline)
		rl.Reports = append(rl.Reports, report)

		if s.cfg.AllowEarlyTermination && !report.Passed() && report.Err == nil {
			break
		}
	}

	return rl, nil
}

// runOne dispatches a single TestKind, either single-threaded over the
// whole region or partitioned across worker goroutines, and reduces the
// per-worker outcomes.
func (s *Suite) runOne(region *Region, kind TestKind, deadline time.Time) Report {
	expected, ok := expectedIterations(kind, region.Len())
	if !ok {
		return errReport(kind, wrapTestError(ErrIterationOverflow))
	}

	if !s.cfg.AllowMultithread {
		outcome, terr := s.runChunk(region, kind, expected, deadline)
		return reportFrom(kind, outcome, terr)
	}

	chunks := partition(region, runtime.NumCPU())
	results := make([]Report, len(chunks))

	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)

		go func(idx int, c *Region) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					results[idx] = errReport(kind, wrapTestError(ErrWorkerPanic))
				}
			}()

			chunkExpected, ok := expectedIterations(kind, c.Len())
			if !ok {
				results[idx] = errReport(kind, wrapTestError(ErrIterationOverflow))

				return
			}

			outcome, terr := s.runChunk(c, kind, chunkExpected, deadline)
			results[idx] = reportFrom(kind, outcome, terr)
		}(i, chunk)
	}

	wg.Wait()

	return reduce(kind, results)
}

// runChunk runs kind's pattern function over region with a fresh
// TimeoutChecker and PRNG, as required by spec.md §4.4 ("each worker
// runs the SAME test kind on its chunk with a FRESH timeout checker").
func (s *Suite) runChunk(region *Region, kind TestKind, expected int64, deadline time.Time) (Outcome, *TestError) {
	checker := newTimeoutChecker(deadline, expected, s.cfg.Logger)
	rng := newPatternRand(s.cfg.Seed)

	if kind.isTwoRegion() && region.Len() < 2 {
		return Outcome{}, wrapTestError(ErrInsufficientForSplit)
	}

	return patternTable[kind](region, rng, checker)
}

func reportFrom(kind TestKind, outcome Outcome, terr *TestError) Report {
	if terr != nil {
		return errReport(kind, terr)
	}

	return outcomeReport(kind, outcome)
}

// partition carves region into exactly min(maxThreads, region.Len())
// disjoint, equal-sized chunks; any remainder at the tail is discarded
// for that test, per spec.md §4.4.
func partition(region *Region, maxThreads int) []*Region {
	threads := min(maxThreads, region.Len())
	if threads < 1 {
		threads = 1
	}

	chunkWords := region.Len() / threads

	chunks := make([]*Region, threads)
	for i := 0; i < threads; i++ {
		lo := i * chunkWords
		chunks[i] = region.Slice(lo, lo+chunkWords)
	}

	return chunks
}

// reduce implements spec.md §4.4's priority reduction across worker
// results: Err(Other) > Err(Timeout) > Ok(Fail) > Ok(Pass). The first
// encountered Fail or Other wins; no aggregation across workers.
func reduce(kind TestKind, results []Report) Report {
	var bestOther, bestTimeout, bestFail *Report

	for i := range results {
		r := &results[i]

		switch {
		case r.Err != nil && !r.Err.IsTimeout():
			if bestOther == nil {
				bestOther = r
			}
		case r.Err != nil:
			if bestTimeout == nil {
				bestTimeout = r
			}
		case !r.Outcome.Pass:
			if bestFail == nil {
				bestFail = r
			}
		}
	}

	switch {
	case bestOther != nil:
		return *bestOther
	case bestTimeout != nil:
		return *bestTimeout
	case bestFail != nil:
		return *bestFail
	default:
		return passReport(kind)
	}
}
