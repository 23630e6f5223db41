// Package passcode generates short one-time passcodes for delivery over
// email or SMS.
//
// Codes are sampled with crypto/rand; the generator never degrades to a
// weaker randomness source. Callers hash codes before storing them.
package passcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Digits-only keeps codes typeable on phone keypads. The alphanumeric set
// drops 0/O and 1/l/I to avoid transcription mistakes.
const (
	numericAlphabet      = "0123456789"
	alphanumericAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"
)

// Lengths outside [MinLength, MaxLength] are rejected at construction.
const (
	MinLength = 4
	MaxLength = 10
)

// Factory builds a Generator for a requested length. It lets callers
// defer the length decision to per-call policy while keeping the length
// bounds check in one place.
type Factory func(length int) (Generator, error)

// Generator produces one-time passcodes of a fixed length.
type Generator interface {
	// Generate returns a new passcode or an error if the random source fails.
	Generate() (string, error)
	// Length returns the length of generated passcodes.
	Length() int
}

// generator samples each position uniformly from an alphabet.
type generator struct {
	alphabet string
	length   int
}

// NewNumeric returns a Generator producing digit-only codes of the given length.
func NewNumeric(length int) (Generator, error) {
	return newGenerator(numericAlphabet, length)
}

// NewAlphanumeric returns a Generator producing mixed-case alphanumeric codes
// of the given length, excluding easily confused characters.
func NewAlphanumeric(length int) (Generator, error) {
	return newGenerator(alphanumericAlphabet, length)
}

func newGenerator(alphabet string, length int) (Generator, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("passcode: length %d outside [%d, %d]", length, MinLength, MaxLength)
	}

	return &generator{alphabet: alphabet, length: length}, nil
}

func (g *generator) Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(g.length)

	for i := 0; i < g.length; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(g.alphabet))))
		if err != nil {
			return "", fmt.Errorf("passcode: random source: %w", err)
		}
		sb.WriteByte(g.alphabet[idx.Int64()])
	}

	return sb.String(), nil
}

func (g *generator) Length() int {
	return g.length
}
