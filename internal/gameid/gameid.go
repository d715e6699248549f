// Package gameid generates sortable identifiers for sessions and rounds.
package gameid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator produces identifiers from UUIDv7 values.
type Generator struct {
	entropy io.Reader
}

// NewGenerator creates a generator. A nil entropy source uses crypto/rand.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ID using UUIDv7 encoded as a 26-character base32 string.
func Generate() string {
	id, err := NewGenerator(nil).Generate()
	if err != nil {
		panic("failed to generate id: " + err.Error())
	}
	return id
}

// Generate creates a new ID from the generator's entropy source.
func (g *Generator) Generate() (string, error) {
	var (
		u   uuid.UUID
		err error
	)
	if g.entropy != nil {
		u, err = uuid.NewV7FromReader(g.entropy)
	} else {
		u, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generating uuidv7: %w", err)
	}
	return encodeBase32(u), nil
}

// encodeBase32 encodes a 128-bit UUID as a 26-character base32 string,
// padding the value with two leading zero bits.
func encodeBase32(data [16]byte) string {
	result := make([]byte, 26)

	// 130 bits in 26 groups of 5: the first group holds only 3 real bits.
	var acc uint16
	bits := 2
	idx := 0
	for _, b := range data {
		acc = acc<<8 | uint16(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			result[idx] = alphabet[(acc>>bits)&0x1f]
			idx++
		}
	}
	return string(result)
}

// Validate checks if an ID is valid (26 characters, valid base32)
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("id must be exactly 26 characters, got %d", len(id))
	}

	// The leading character carries 3 bits, so it cannot exceed 7.
	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}

	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
