package poker

import (
	rand "math/rand/v2"
)

// Deck is a 52-card deck dealt from the top.
type Deck struct {
	cards [52]Card
	next  int
	rng   *rand.Rand
}

// NewDeck returns a deck shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	i := 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	d.Shuffle()
	return d
}

// NewStackedDeck returns a deck whose first cards are exactly top, in order,
// followed by the remaining cards in a fixed order. Used to script deals.
func NewStackedDeck(top ...Card) *Deck {
	d := &Deck{}
	var used Hand
	i := 0
	for _, c := range top {
		if i == len(d.cards) || used.HasCard(c) {
			break
		}
		d.cards[i] = c
		used.AddCard(c)
		i++
	}
	for _, c := range (FullDeck &^ used).Cards() {
		d.cards[i] = c
		i++
	}
	return d
}

// Shuffle reorders the whole deck (Fisher-Yates) and resets the deal position.
// A deck without an RNG keeps its order.
func (d *Deck) Shuffle() {
	d.next = 0
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards, or nil if fewer than n remain.
func (d *Deck) Deal(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	out := make([]Card, n)
	copy(out, d.cards[d.next:d.next+n])
	d.next += n
	return out
}

// DealOne deals a single card, or 0 when the deck is empty.
func (d *Deck) DealOne() Card {
	if d.next >= len(d.cards) {
		return 0
	}
	c := d.cards[d.next]
	d.next++
	return c
}

// CardsRemaining returns how many cards are left to deal.
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}
