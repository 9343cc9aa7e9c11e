package memtest

import (
	"sync/atomic"
	"unsafe"
)

// MinRegionWords is the smallest region Suite.Run will accept.
const MinRegionWords = 512

// Region is a contiguous, word-aligned view over a caller-owned buffer
// of machine words. All reads and writes go through sync/atomic, which
// gives the same guarantee spec.md asks of "volatile" access in C: the
// compiler may not elide a Region access, reorder it relative to another
// Region access, or substitute a cached value.
//
// A Region never allocates or frees the backing storage; the caller
// retains ownership and must not touch the buffer while a Region over it
// is in use by a running test.
type Region struct {
	words []atomic.Uint64
}

// NewRegion wraps buf as a Region. The caller retains ownership of buf
// and must not access it concurrently with any in-flight test.
func NewRegion(buf []uint64) *Region {
	if len(buf) == 0 {
		return &Region{}
	}

	// atomic.Uint64 has the size and layout of a uint64, so buf is
	// reinterpreted in place rather than copied.
	words := unsafe.Slice((*atomic.Uint64)(unsafe.Pointer(&buf[0])), len(buf))

	return &Region{words: words}
}

// Len returns the region length in words.
func (r *Region) Len() int {
	return len(r.words)
}

// Read performs a volatile-equivalent read of word i.
func (r *Region) Read(i int) uint64 {
	return r.words[i].Load()
}

// Write performs a volatile-equivalent write of word i.
func (r *Region) Write(i int, v uint64) {
	r.words[i].Store(v)
}

// AddressOf returns the real memory address of word i, for tests (such
// as OwnAddressBasic) that write each word's own address into itself.
func (r *Region) AddressOf(i int) uint64 {
	return uint64(uintptr(unsafe.Pointer(&r.words[i])))
}

// FillBytes sets every word in the region so that each of its
// WordSize bytes equals b. Used to prepare a region to all-ones (or any
// other constant byte pattern) before two-region tests.
func (r *Region) FillBytes(b byte) {
	v := fillWord(b)
	for i := range r.words {
		r.words[i].Store(v)
	}
}

// WordSize is the size in bytes of one machine word as modeled by this
// package.
const WordSize = 8

// fillWord returns a word with every byte equal to b.
func fillWord(b byte) uint64 {
	v := uint64(b)

	return v | v<<8 | v<<16 | v<<24 | v<<32 | v<<40 | v<<48 | v<<56
}

// SplitAt returns two sub-views of r: a prefix of i words and the
// remainder. It is used by two-region tests to obtain the "half =
// len/2" halves named in spec.md §3. The two slices are disjoint.
func (r *Region) SplitAt(i int) (first, second *Region) {
	return &Region{words: r.words[:i]}, &Region{words: r.words[i:]}
}

// Slice returns the half-open sub-region [lo, hi). Used to carve
// disjoint worker chunks out of a Region for partitioned test
// dispatch.
func (r *Region) Slice(lo, hi int) *Region {
	return &Region{words: r.words[lo:hi]}
}

// addrLen returns the base address and byte length of the region's
// backing storage, for handoff to the OS-specific locking boundary.
func (r *Region) addrLen() (addr uintptr, length uintptr) {
	if len(r.words) == 0 {
		return 0, 0
	}

	return uintptr(unsafe.Pointer(&r.words[0])), uintptr(len(r.words)) * WordSize
}

// Snapshot copies the current contents of the region into a plain
// []uint64, for callers that need a point-in-time readable copy
// without holding onto the Region.
func (r *Region) Snapshot() []uint64 {
	out := make([]uint64, len(r.words))
	for i := range r.words {
		out[i] = r.words[i].Load()
	}

	return out
}
