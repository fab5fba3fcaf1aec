package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// randReader is the random source used for all entropy draws: salts, IVs,
// key generation, and password sampling. It defaults to nil (which uses
// crypto/rand) but can be overridden for testing.
var randReader io.Reader

func reader() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// RandomBytes returns n cryptographically random bytes. Each call draws
// fresh bytes; concurrent calls never observe each other's output.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(reader(), b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// RandomInt returns a uniform random int in [0, max). It rejection-samples
// 32-bit draws, so the result carries no modulo bias.
func RandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("max must be positive, got %d", max)
	}

	limit := (uint64(1) << 32 / uint64(max)) * uint64(max)
	var buf [4]byte
	for {
		if _, err := io.ReadFull(reader(), buf[:]); err != nil {
			return 0, fmt.Errorf("read random bytes: %w", err)
		}
		v := uint64(binary.BigEndian.Uint32(buf[:]))
		if v < limit {
			return int(v % uint64(max)), nil
		}
	}
}

// Zero overwrites b with zeroes. Call it on transient key material as soon
// as the material is no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
