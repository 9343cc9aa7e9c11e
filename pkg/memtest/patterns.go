package memtest

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
	mrand "math/rand/v2"
)

// allOnes is the word with every bit set (spec.md's ALL-ONES = ~0).
const allOnes uint64 = ^uint64(0)

// checker is the interface `patterns.go` tests poll once per inner
// iteration. A *TimeoutChecker satisfies it directly; tests substitute
// a stub to exercise edge cases without real wall-clock waits.
type checker interface {
	check() *TestError
}

// patternFunc implements one TestKind's write/verify algorithm over a
// disjoint chunk of the region.
type patternFunc func(r *Region, rng *mrand.Rand, c checker) (Outcome, *TestError)

var patternTable = [numTestKinds]patternFunc{
	OwnAddressBasic:  runOwnAddressBasic,
	OwnAddressRepeat: runOwnAddressRepeat,
	RandomVal:        runRandomVal,
	Xor:              runXor,
	Sub:              runSub,
	Mul:              runMul,
	Div:              runDiv,
	Or:               runOr,
	And:              runAnd,
	SeqInc:           runSeqInc,
	SolidBits:        runSolidBits,
	Checkerboard:     runCheckerboard,
	BlockSeq:         runBlockSeq,
}

// expectedIterations returns the 64-bit iteration count used solely to
// drive the timeout checker's progress reporting (spec.md §4.2: "NOT a
// loop bound beyond what is specified"). ok is false iff the
// multiplication would overflow 64 bits, in which case the test must
// fail with ErrIterationOverflow.
func expectedIterations(kind TestKind, words int) (n int64, ok bool) {
	w := int64(words)
	half := w / 2

	mul := func(a, b int64) (int64, bool) {
		if a == 0 || b == 0 {
			return 0, true
		}

		p := a * b
		if p/a != b {
			return 0, false
		}

		return p, true
	}

	switch kind {
	case OwnAddressBasic:
		return mul(w, 2)
	case OwnAddressRepeat:
		n, ok := mul(16, w)
		if !ok {
			return 0, false
		}

		return mul(n, 2)
	case RandomVal:
		return mul(half, 2)
	case Xor, Sub, Mul, Div, Or, And, SeqInc:
		return mul(half, 2)
	case SolidBits, Checkerboard:
		n, ok := mul(64, half)
		if !ok {
			return 0, false
		}

		return mul(n, 2)
	case BlockSeq:
		n, ok := mul(256, half)
		if !ok {
			return 0, false
		}

		return mul(n, 2)
	default:
		return 0, false
	}
}

// newPatternRand returns the PRNG the caller should use for a test run.
// A nil seed draws fresh entropy from crypto/rand so that distinct runs
// without an explicit Seed do not collide.
func newPatternRand(seed *uint64) *mrand.Rand {
	var s1, s2 uint64
	if seed != nil {
		s1, s2 = *seed, bits.Reverse64(*seed)|1
	} else {
		var buf [16]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand failure on a supported platform is
			// exceptional; fall back to a fixed, documented seed
			// rather than leaving the PRNG uninitialized.
			s1, s2 = 0x9e3779b97f4a7c15, 1
		} else {
			s1 = binary.LittleEndian.Uint64(buf[:8])
			s2 = binary.LittleEndian.Uint64(buf[8:]) | 1
		}
	}

	return mrand.New(mrand.NewPCG(s1, s2))
}

// divideOrOne clamps a zero divisor to 1, per spec.md §4.2's tie-break
// policy for the Div test.
func divideOrOne(v uint64) uint64 {
	if v == 0 {
		return 1
	}

	return v
}
