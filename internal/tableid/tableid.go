// Package tableid generates table ids: a UUIDv7 written as 26 characters
// of Crockford base32, so ids sort by creation time.
package tableid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the length of every id.
const Length = 26

// New returns a fresh id. It panics only if the system random source fails.
func New() string {
	return encode(uuid.Must(uuid.NewV7()))
}

// NewFromReader builds an id taking its random bits from r, which makes
// ids reproducible in tests and seeded simulations.
func NewFromReader(r io.Reader) (string, error) {
	u, err := uuid.NewV7FromReader(r)
	if err != nil {
		return "", fmt.Errorf("generate table id: %w", err)
	}
	return encode(u), nil
}

// encode writes the 128 bits as 130, with two leading zero bits.
func encode(u uuid.UUID) string {
	var sb strings.Builder
	sb.Grow(Length)
	for i := range Length {
		var v byte
		for b := i * 5; b < i*5+5; b++ {
			v <<= 1
			if bit := b - 2; bit >= 0 && u[bit/8]&(0x80>>(bit%8)) != 0 {
				v |= 1
			}
		}
		sb.WriteByte(alphabet[v])
	}
	return sb.String()
}

// Validate checks that id could have come from New.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("table id must be %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("table id first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
