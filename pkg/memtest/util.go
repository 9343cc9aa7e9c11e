package memtest

import (
	"encoding/binary"

	crand "crypto/rand"
)

// cryptoRandRead fills buf with entropy from the OS CSPRNG, used only
// to seed the non-deterministic PRNG paths (pattern draws, shuffle
// order) when the caller has not supplied an explicit Seed.
func cryptoRandRead(buf []byte) (int, error) {
	return crand.Read(buf)
}

func bytesToUint64(b [8]byte) uint64 {
	return binary.LittleEndian.Uint64(b[:])
}
