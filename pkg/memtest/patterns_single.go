package memtest

import mrand "math/rand/v2"

// runOwnAddressBasic implements spec.md §4.2 test 1: a write pass
// storing each word's own address, then a read pass verifying it. Split
// into two helpers so tests can inject a fault between the passes.
func runOwnAddressBasic(r *Region, _ *mrand.Rand, c checker) (Outcome, *TestError) {
	if err := ownAddressWrite(r, c); err != nil {
		return Outcome{}, err
	}

	return ownAddressVerify(r, c)
}

func ownAddressWrite(r *Region, c checker) *TestError {
	n := r.Len()

	for i := 0; i < n; i++ {
		r.Write(i, r.AddressOf(i))

		if err := c.check(); err != nil {
			return err
		}
	}

	return nil
}

func ownAddressVerify(r *Region, c checker) (Outcome, *TestError) {
	n := r.Len()

	for i := 0; i < n; i++ {
		addr := r.AddressOf(i)
		if got := r.Read(i); got != addr {
			return unexpectedValueFailure(addr, addr, got), nil
		}

		if err := c.check(); err != nil {
			return Outcome{}, err
		}
	}

	return passOutcome(), nil
}

// runOwnAddressRepeat implements spec.md §4.2 test 2: 16 outer runs,
// alternating between address and complement-of-address by parity of
// (run index + element index), each run doing a full write pass then a
// full read pass.
func runOwnAddressRepeat(r *Region, _ *mrand.Rand, c checker) (Outcome, *TestError) {
	const outerRuns = 16

	n := r.Len()

	for run := 0; run < outerRuns; run++ {
		for j := 0; j < n; j++ {
			addr := r.AddressOf(j)

			want := addr
			if (run+j)%2 != 0 {
				want = ^addr
			}

			r.Write(j, want)

			if err := c.check(); err != nil {
				return Outcome{}, err
			}
		}

		for j := 0; j < n; j++ {
			addr := r.AddressOf(j)

			want := addr
			if (run+j)%2 != 0 {
				want = ^addr
			}

			if got := r.Read(j); got != want {
				return unexpectedValueFailure(addr, want, got), nil
			}

			if err := c.check(); err != nil {
				return Outcome{}, err
			}
		}
	}

	return passOutcome(), nil
}
