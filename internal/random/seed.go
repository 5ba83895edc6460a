// Package random produces seeds for the session's injected random
// source.
//
// # Determinism
//
// The engine itself never reaches for global randomness: every
// component that rolls dice takes a *rand.Rand built from a seed, so a
// session replayed with the same seed makes the same choices. NewSeed
// only exists to pick that seed when the player doesn't.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// NewSeed returns a fresh seed from the operating system's entropy
// source, falling back to the wall clock if that fails.
func NewSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	seed := int64(binary.BigEndian.Uint64(buf[:]) &^ (1 << 63))
	return seed
}
