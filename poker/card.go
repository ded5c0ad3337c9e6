// Package poker provides the card model and the hand evaluator used by the
// table engine.
//
// Cards are single bits in a 64-bit mask: suit*16 + rank. A Hand is the OR of
// any number of cards, which keeps set operations (dealt, known, remaining)
// to a single instruction and lets the evaluator work on per-suit rank masks.
package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Ranks, deuce through ace.
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Suits.
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// Card is a single playing card encoded as one bit.
type Card uint64

// NewCard returns the card with the given rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint(suit)*16 + uint(rank))
}

// Rank returns the card rank, 0 (deuce) to 12 (ace).
func (c Card) Rank() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)) % 16)
}

// Suit returns the card suit, 0 (clubs) to 3 (spades).
func (c Card) Suit() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)) / 16)
}

// Valid reports whether c encodes exactly one real card.
func (c Card) Valid() bool {
	if bits.OnesCount64(uint64(c)) != 1 {
		return false
	}
	return c.Rank() <= Ace
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// MarshalText encodes the card in two-character notation ("As", "Td").
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("poker: invalid card %#x", uint64(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses two-character notation.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses a card such as "As", "td" or "10h".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "10") {
		s = "T" + s[2:]
	}
	if len(s) != 2 {
		return 0, fmt.Errorf("poker: invalid card %q", s)
	}
	rank := strings.IndexByte(rankChars, strings.ToUpper(s[:1])[0])
	if rank < 0 {
		return 0, fmt.Errorf("poker: invalid rank in %q", s)
	}
	suit := strings.IndexByte(suitChars, strings.ToLower(s[1:])[0])
	if suit < 0 {
		return 0, fmt.Errorf("poker: invalid suit in %q", s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseHand parses whitespace separated cards ("As Kd 7c") into a Hand.
func ParseHand(s string) (Hand, error) {
	var h Hand
	for _, field := range strings.Fields(s) {
		c, err := ParseCard(field)
		if err != nil {
			return 0, err
		}
		if h.HasCard(c) {
			return 0, fmt.Errorf("poker: duplicate card %s", c)
		}
		h.AddCard(c)
	}
	return h, nil
}

// MustParseHand is ParseHand for fixtures; it panics on malformed input.
func MustParseHand(s string) Hand {
	h, err := ParseHand(s)
	if err != nil {
		panic(err)
	}
	return h
}

// RankName returns the singular English name of a rank.
func RankName(rank uint8) string {
	names := [...]string{"Two", "Three", "Four", "Five", "Six", "Seven", "Eight",
		"Nine", "Ten", "Jack", "Queen", "King", "Ace"}
	if int(rank) >= len(names) {
		return "?"
	}
	return names[rank]
}

func rankPlural(rank uint8) string {
	if rank == Six {
		return "Sixes"
	}
	return RankName(rank) + "s"
}
