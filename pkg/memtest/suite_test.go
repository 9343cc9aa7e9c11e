package memtest

import (
	mrand "math/rand/v2"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(v uint64) *uint64 { return &v }

// TestSuiteRunAllPassHappyPath implements spec.md §8 scenario 1: a
// healthy region run single-threaded through every test kind passes
// cleanly.
func TestSuiteRunAllPassHappyPath(t *testing.T) {
	t.Parallel()

	region := NewRegion(make([]uint64, MinRegionWords*4))
	suite := BuildSuiteRandom(SuiteConfig{
		Timeout:  10 * time.Second,
		LockMode: Disabled,
		Seed:     seed(1),
	})

	reports, err := suite.Run(region)
	require.Nil(t, err)
	assert.True(t, reports.AllPass())
	assert.Len(t, reports.Reports, int(numTestKinds))
	assert.Equal(t, region.Len(), reports.TestedRegionWords)
	assert.False(t, reports.WasLocked)
}

// TestSuiteRunRejectsUndersizedRegion covers the MinRegionWords
// boundary named in spec.md §3.
func TestSuiteRunRejectsUndersizedRegion(t *testing.T) {
	t.Parallel()

	region := NewRegion(make([]uint64, MinRegionWords-1))
	suite := BuildSuite(SuiteConfig{Timeout: time.Second, LockMode: Disabled}, []TestKind{Xor})

	_, err := suite.Run(region)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrOther)
}

func TestSuiteRunAcceptsExactlyMinRegionWords(t *testing.T) {
	t.Parallel()

	region := NewRegion(make([]uint64, MinRegionWords))
	suite := BuildSuite(SuiteConfig{Timeout: 5 * time.Second, LockMode: Disabled}, []TestKind{Xor, SeqInc})

	reports, err := suite.Run(region)
	require.Nil(t, err)
	assert.True(t, reports.AllPass())
}

// TestSuiteRunTimesOut implements spec.md §8 scenario 4: a large region
// and an unworkably small timeout must produce a timeout report rather
// than run to completion.
func TestSuiteRunTimesOut(t *testing.T) {
	t.Parallel()

	region := NewRegion(make([]uint64, 1<<17)) // 1 MiB
	suite := BuildSuite(SuiteConfig{
		Timeout:          time.Nanosecond,
		LockMode:         Disabled,
		AllowMultithread: false,
	}, []TestKind{BlockSeq})

	reports, err := suite.Run(region)
	require.Nil(t, err)
	require.Len(t, reports.Reports, 1)
	assert.False(t, reports.AllPass())

	r := reports.Reports[0]
	require.NotNil(t, r.Err)
	assert.True(t, r.Err.IsTimeout())
}

// TestSuiteRunStopsEarlyOnFailure implements spec.md §8 scenario 5:
// AllowEarlyTermination stops dispatching further tests once a hardware
// failure (not a timeout or setup error) is observed. The first
// configured kind's entry in patternTable is swapped for a stub that
// always reports a failing Outcome, since every real pattern overwrites
// whatever was in the region before it runs and so cannot be made to
// fail by pre-poisoning memory alone.
func TestSuiteRunStopsEarlyOnFailure(t *testing.T) {
	original := patternTable[Xor]
	patternTable[Xor] = func(r *Region, _ *mrand.Rand, _ checker) (Outcome, *TestError) {
		return unexpectedValueFailure(r.AddressOf(0), 1, 2), nil
	}
	defer func() { patternTable[Xor] = original }()

	region := NewRegion(make([]uint64, 512))

	suite := BuildSuite(SuiteConfig{
		Timeout:               10 * time.Second,
		LockMode:              Disabled,
		AllowEarlyTermination: true,
	}, []TestKind{Xor, OwnAddressBasic, SeqInc})

	reports, err := suite.Run(region)
	require.Nil(t, err)
	assert.False(t, reports.AllPass())
	assert.Len(t, reports.Reports, 1, "the faulting first test must stop dispatch of the remaining two")
}

// TestSuiteRunMultithreadedReducesFaultingChunk implements spec.md §8
// scenario 6: with multithreading enabled, a fault confined to one
// worker's chunk surfaces as a single mismatched-values report whose
// addresses fall inside that chunk. Every real pattern writes its own
// paired values before comparing, so the fault can't be pre-poisoned
// into the region; patternTable[RandomVal] is swapped for a stub that
// runs the real write/compare shape but deliberately corrupts the one
// chunk whose base address matches a target captured before Suite.Run
// partitions the region.
func TestSuiteRunMultithreadedReducesFaultingChunk(t *testing.T) {
	words := 1 << 20 // 8 MiB region
	region := NewRegion(make([]uint64, words))

	chunks := partition(region, runtime.NumCPU())
	require.NotEmpty(t, chunks)
	targetAddr := chunks[len(chunks)/2].AddressOf(0)
	lo, hi := chunks[len(chunks)/2].AddressOf(0), chunks[len(chunks)/2].AddressOf(chunks[len(chunks)/2].Len()-1)

	original := patternTable[RandomVal]
	patternTable[RandomVal] = func(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
		first, second, half, err := splitHalves(r)
		if err != nil {
			return Outcome{}, err
		}

		if werr := randomValWrite(first, second, half, rng, c); werr != nil {
			return Outcome{}, werr
		}

		if r.AddressOf(0) == targetAddr {
			second.Write(half/2, first.Read(half/2)+1)
		}

		return compareHalves(first, second, half, c)
	}
	defer func() { patternTable[RandomVal] = original }()

	suite := BuildSuite(SuiteConfig{
		Timeout:          30 * time.Second,
		LockMode:         Disabled,
		AllowMultithread: true,
		Seed:             seed(99),
	}, []TestKind{RandomVal})

	reports, rerr := suite.Run(region)
	require.Nil(t, rerr)
	require.Len(t, reports.Reports, 1)

	r := reports.Reports[0]
	require.Nil(t, r.Err)
	require.False(t, r.Outcome.Pass)
	require.Equal(t, FailureMismatchedValues, r.Outcome.Failure.Kind)

	assert.GreaterOrEqual(t, r.Outcome.Failure.Address1, lo)
	assert.LessOrEqual(t, r.Outcome.Failure.Address1, hi)
}

// TestSuiteRunMultithreadReducesChunkCountToRegionSize covers the
// partition boundary: asked for more threads than the region has words,
// partition clamps the chunk count down to the region length, and a
// multithreaded run over a MinRegionWords region still completes.
func TestSuiteRunMultithreadReducesChunkCountToRegionSize(t *testing.T) {
	t.Parallel()

	region := NewRegion(make([]uint64, MinRegionWords))
	assert.Len(t, partition(region, region.Len()+1), region.Len())

	suite := BuildSuite(SuiteConfig{
		Timeout:          10 * time.Second,
		LockMode:         Disabled,
		AllowMultithread: true,
	}, []TestKind{Xor})

	reports, err := suite.Run(region)
	require.Nil(t, err)
	assert.True(t, reports.AllPass())
}

func TestPartitionDropsRemainderAndStaysDisjoint(t *testing.T) {
	t.Parallel()

	region := NewRegion(make([]uint64, 17))
	chunks := partition(region, 4)

	require.Len(t, chunks, 4)

	total := 0
	for _, c := range chunks {
		total += c.Len()
	}
	assert.Equal(t, 16, total, "17/4 chunks of 4 words must drop the 1-word remainder")

	chunks[0].Write(0, 111)
	assert.Equal(t, uint64(111), region.Read(0))
}

func TestReduceFirstOtherErrorWinsOverTimeoutAndFail(t *testing.T) {
	t.Parallel()

	results := []Report{
		outcomeReport(Xor, unexpectedValueFailure(1, 1, 2)),
		errReport(Xor, NewTimeoutError()),
		errReport(Xor, wrapTestError(ErrWorkerPanic)),
	}

	got := reduce(Xor, results)
	require.NotNil(t, got.Err)
	assert.False(t, got.Err.IsTimeout())
}

func TestReduceTimeoutWinsOverFail(t *testing.T) {
	t.Parallel()

	results := []Report{
		outcomeReport(Xor, unexpectedValueFailure(1, 1, 2)),
		errReport(Xor, NewTimeoutError()),
	}

	got := reduce(Xor, results)
	require.NotNil(t, got.Err)
	assert.True(t, got.Err.IsTimeout())
}

func TestReduceAllPassYieldsPass(t *testing.T) {
	t.Parallel()

	results := []Report{passReport(Xor), passReport(Xor)}
	got := reduce(Xor, results)
	assert.True(t, got.Passed())
}
