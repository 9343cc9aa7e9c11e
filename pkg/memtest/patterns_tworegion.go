package memtest

import mrand "math/rand/v2"

// splitHalves validates the len >= 2 precondition spec.md §4.2 imposes
// on every two-region test and returns the disjoint halves plus half's
// word count.
func splitHalves(r *Region) (first, second *Region, half int, err *TestError) {
	if r.Len() < 2 {
		return nil, nil, 0, wrapTestError(ErrInsufficientForSplit)
	}

	half = r.Len() / 2
	first, second = r.SplitAt(half)

	return first, second, half, nil
}

// compareHalves compares first[i] against second[i] for i in [0,half),
// reporting the first mismatch found. Each comparison counts as one
// checker iteration.
func compareHalves(first, second *Region, half int, c checker) (Outcome, *TestError) {
	for i := 0; i < half; i++ {
		v1, v2 := first.Read(i), second.Read(i)
		if v1 != v2 {
			return mismatchedValuesFailure(first.AddressOf(i), v1, second.AddressOf(i), v2), nil
		}

		if err := c.check(); err != nil {
			return Outcome{}, err
		}
	}

	return passOutcome(), nil
}

// runRandomVal implements spec.md §4.2 test 3. The write pass and the
// compare pass are separate helpers so tests can inject a fault
// between them.
func runRandomVal(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	first, second, half, err := splitHalves(r)
	if err != nil {
		return Outcome{}, err
	}

	if err := randomValWrite(first, second, half, rng, c); err != nil {
		return Outcome{}, err
	}

	return compareHalves(first, second, half, c)
}

func randomValWrite(first, second *Region, half int, rng *mrand.Rand, c checker) *TestError {
	for i := 0; i < half; i++ {
		v := rng.Uint64()
		first.Write(i, v)
		second.Write(i, v)

		if err := c.check(); err != nil {
			return err
		}
	}

	return nil
}

// rmwTest runs the shared shape of the arithmetic/bitwise two-region
// tests (spec.md §4.2 items 4-9): reset the region to ALL-ONES, draw one
// random word, apply update to each paired cell via read-modify-write,
// then compare halves.
func rmwTest(r *Region, rng *mrand.Rand, c checker, update func(cell, v uint64) uint64) (Outcome, *TestError) {
	first, second, half, err := splitHalves(r)
	if err != nil {
		return Outcome{}, err
	}

	r.FillBytes(0xFF)

	v := rng.Uint64()

	for i := 0; i < half; i++ {
		first.Write(i, update(first.Read(i), v))
		second.Write(i, update(second.Read(i), v))

		if err := c.check(); err != nil {
			return Outcome{}, err
		}
	}

	return compareHalves(first, second, half, c)
}

func xorUpdate(cell, v uint64) uint64 { return cell ^ v }
func subUpdate(cell, v uint64) uint64 { return cell - v }
func mulUpdate(cell, v uint64) uint64 { return cell * v }
func divUpdate(cell, v uint64) uint64 { return cell / divideOrOne(v) }
func orUpdate(cell, v uint64) uint64  { return cell | v }
func andUpdate(cell, v uint64) uint64 { return cell & v }

func runXor(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	return rmwTest(r, rng, c, xorUpdate)
}

func runSub(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	return rmwTest(r, rng, c, subUpdate)
}

func runMul(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	return rmwTest(r, rng, c, mulUpdate)
}

func runDiv(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	return rmwTest(r, rng, c, divUpdate)
}

func runOr(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	return rmwTest(r, rng, c, orUpdate)
}

func runAnd(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	return rmwTest(r, rng, c, andUpdate)
}

// runSeqInc implements spec.md §4.2 test 10: draw one random word v,
// write v+i (wrapping) to both halves for each paired index i.
func runSeqInc(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError) {
	first, second, half, err := splitHalves(r)
	if err != nil {
		return Outcome{}, err
	}

	v := rng.Uint64()

	for i := 0; i < half; i++ {
		val := v + uint64(i)
		first.Write(i, val)
		second.Write(i, val)

		if err := c.check(); err != nil {
			return Outcome{}, err
		}
	}

	return compareHalves(first, second, half, c)
}

// toggleRunsTest runs the shared shape of SolidBits and Checkerboard
// (spec.md §4.2 items 11-12): outerRuns runs; run i starts from
// startValue(i), toggled (val = ^val) once per paired index before each
// write; compare halves after every run, aborting on the first
// mismatch.
func toggleRunsTest(r *Region, c checker, outerRuns int, startValue func(run int) uint64) (Outcome, *TestError) {
	first, second, half, err := splitHalves(r)
	if err != nil {
		return Outcome{}, err
	}

	for run := 0; run < outerRuns; run++ {
		val := startValue(run)

		for j := 0; j < half; j++ {
			val = ^val
			first.Write(j, val)
			second.Write(j, val)

			if err := c.check(); err != nil {
				return Outcome{}, err
			}
		}

		outcome, err := compareHalves(first, second, half, c)
		if err != nil || !outcome.Pass {
			return outcome, err
		}
	}

	return passOutcome(), nil
}

// runSolidBits implements spec.md §4.2 test 11.
func runSolidBits(r *Region, _ *mrand.Rand, c checker) (Outcome, *TestError) {
	return toggleRunsTest(r, c, 64, func(run int) uint64 {
		if run%2 == 0 {
			return 0
		}

		return allOnes
	})
}

// checkerPattern is the byte 0x55 repeated across a word; its
// complement 0xAA is checkerPattern's bitwise NOT.
const checkerPattern uint64 = 0x5555555555555555

// runCheckerboard implements spec.md §4.2 test 12.
func runCheckerboard(r *Region, _ *mrand.Rand, c checker) (Outcome, *TestError) {
	return toggleRunsTest(r, c, 64, func(run int) uint64 {
		if run%2 == 0 {
			return checkerPattern
		}

		return ^checkerPattern
	})
}

// runBlockSeq implements spec.md §4.2 test 13: 256 outer runs, run i
// writes a word whose every byte equals i.
func runBlockSeq(r *Region, _ *mrand.Rand, c checker) (Outcome, *TestError) {
	first, second, half, err := splitHalves(r)
	if err != nil {
		return Outcome{}, err
	}

	for run := 0; run < 256; run++ {
		val := fillWord(byte(run))

		for j := 0; j < half; j++ {
			first.Write(j, val)
			second.Write(j, val)

			if err := c.check(); err != nil {
				return Outcome{}, err
			}
		}

		outcome, err := compareHalves(first, second, half, c)
		if err != nil || !outcome.Pass {
			return outcome, err
		}
	}

	return passOutcome(), nil
}
