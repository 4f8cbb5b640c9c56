// Package dice provides the randomness abstraction used by the battle engine
// for critical-hit and status-application rolls, plus a small dice-expression
// roller used when content files describe stat ranges.
package dice

import (
	"crypto/rand"
	"encoding/binary"
)

// Source is the randomness provider for combat rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Float64 returns a random value in [0, 1).
	Float64() float64
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Float64 draws 53 random bits and scales them into [0, 1).
//
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// Intn maps a draw from src onto [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
// Postcondition: Returns a value in [0, n).
func Intn(src Source, n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v := int(src.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
