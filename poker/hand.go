package poker

import (
	"math/bits"
	"strings"
)

// Hand is an unordered set of cards.
type Hand uint64

// NewHand builds a hand from cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds c to the hand.
func (h *Hand) AddCard(c Card) { *h |= Hand(c) }

// HasCard reports whether c is in the hand.
func (h Hand) HasCard(c Card) bool { return h&Hand(c) != 0 }

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int { return bits.OnesCount64(uint64(h)) }

// GetSuitMask returns the 13-bit rank mask for one suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16(uint64(h)>>(uint(suit)*16)) & 0x1FFF
}

// RankMask returns the ranks present in any suit.
func (h Hand) RankMask() uint16 {
	return h.GetSuitMask(Clubs) | h.GetSuitMask(Diamonds) | h.GetSuitMask(Hearts) | h.GetSuitMask(Spades)
}

// Cards returns the cards in ascending bit order (clubs first, deuce first).
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		cards = append(cards, Card(rest&-rest))
	}
	return cards
}

// GetCard returns the i-th card in Cards order, or 0 if out of range.
func (h Hand) GetCard(i int) Card {
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		if i == 0 {
			return Card(rest & -rest)
		}
		i--
	}
	return 0
}

// Strings returns each card in two-character notation.
func (h Hand) Strings() []string {
	cards := h.Cards()
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

func (h Hand) String() string {
	return strings.Join(h.Strings(), " ")
}

// FullDeck is every card.
const FullDeck = Hand(0x1FFF_1FFF_1FFF_1FFF)
