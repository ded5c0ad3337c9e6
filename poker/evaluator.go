package poker

import (
	"fmt"
	"math/bits"
)

// Category enumerates hand classes from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandValue is a totally ordered hand strength: larger values win.
//
// Layout: category in bits 20-23, then up to five tie-break ranks in 4-bit
// nibbles from bit 16 downwards, each stored as rank+1 so an absent kicker
// sorts below a deuce.
type HandValue uint32

func makeValue(cat Category, ranks ...uint8) HandValue {
	v := HandValue(cat) << 20
	for i, r := range ranks {
		if i == 5 {
			break
		}
		v |= HandValue(r+1) << (16 - 4*uint(i))
	}
	return v
}

// Category returns the hand class.
func (v HandValue) Category() Category { return Category(v >> 20) }

// Kickers returns the tie-break ranks in significance order.
func (v HandValue) Kickers() []uint8 {
	out := make([]uint8, 0, 5)
	for i := 0; i < 5; i++ {
		n := uint8(v>>(16-4*uint(i))) & 0xF
		if n == 0 {
			break
		}
		out = append(out, n-1)
	}
	return out
}

// Compare returns 1 if v beats o, -1 if o beats v, 0 on a tie.
func (v HandValue) Compare(o HandValue) int {
	switch {
	case v > o:
		return 1
	case v < o:
		return -1
	}
	return 0
}

// String describes the hand, e.g. "Two Pair, Aces and Kings".
func (v HandValue) String() string {
	k := v.Kickers()
	if len(k) == 0 {
		return v.Category().String()
	}
	switch v.Category() {
	case HighCard:
		return fmt.Sprintf("High Card, %s", RankName(k[0]))
	case Pair:
		return fmt.Sprintf("Pair of %s", rankPlural(k[0]))
	case TwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", rankPlural(k[0]), rankPlural(k[1]))
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a Kind, %s", rankPlural(k[0]))
	case Straight:
		return fmt.Sprintf("Straight, %s high", RankName(k[0]))
	case Flush:
		return fmt.Sprintf("Flush, %s high", RankName(k[0]))
	case FullHouse:
		return fmt.Sprintf("Full House, %s full of %s", rankPlural(k[0]), rankPlural(k[1]))
	case FourOfAKind:
		return fmt.Sprintf("Four of a Kind, %s", rankPlural(k[0]))
	case StraightFlush:
		if k[0] == Ace {
			return "Royal Flush"
		}
		return fmt.Sprintf("Straight Flush, %s high", RankName(k[0]))
	}
	return v.Category().String()
}

// Evaluate ranks the best five-card hand that can be made from h. It accepts
// two to seven cards; with fewer than five only pair-type categories and high
// cards are possible.
func Evaluate(h Hand) HandValue {
	var suits [4]uint16
	var all uint16
	for s := uint8(0); s < 4; s++ {
		suits[s] = h.GetSuitMask(s)
		all |= suits[s]
	}

	var quads, trips, pairs uint16
	for r := uint8(0); r <= Ace; r++ {
		bit := uint16(1) << r
		n := 0
		for s := 0; s < 4; s++ {
			if suits[s]&bit != 0 {
				n++
			}
		}
		switch n {
		case 4:
			quads |= bit
		case 3:
			trips |= bit
		case 2:
			pairs |= bit
		}
	}

	flushSuit := -1
	for s := 0; s < 4; s++ {
		if bits.OnesCount16(suits[s]) >= 5 {
			flushSuit = s
			break
		}
	}

	if flushSuit >= 0 {
		if high, ok := straightHigh(suits[flushSuit]); ok {
			return makeValue(StraightFlush, high)
		}
	}

	if quads != 0 {
		q := topRank(quads)
		return makeValue(FourOfAKind, append([]uint8{q}, topRanks(all&^bit(q), 1)...)...)
	}

	if trips != 0 {
		t := topRank(trips)
		rest := (trips &^ bit(t)) | pairs
		if rest != 0 {
			return makeValue(FullHouse, t, topRank(rest))
		}
	}

	if flushSuit >= 0 {
		return makeValue(Flush, topRanks(suits[flushSuit], 5)...)
	}

	if high, ok := straightHigh(all); ok {
		return makeValue(Straight, high)
	}

	if trips != 0 {
		t := topRank(trips)
		return makeValue(ThreeOfAKind, append([]uint8{t}, topRanks(all&^bit(t), 2)...)...)
	}

	if bits.OnesCount16(pairs) >= 2 {
		hi := topRank(pairs)
		lo := topRank(pairs &^ bit(hi))
		ranks := append([]uint8{hi, lo}, topRanks(all&^bit(hi)&^bit(lo), 1)...)
		return makeValue(TwoPair, ranks...)
	}

	if pairs != 0 {
		p := topRank(pairs)
		return makeValue(Pair, append([]uint8{p}, topRanks(all&^bit(p), 3)...)...)
	}

	return makeValue(HighCard, topRanks(all, 5)...)
}

// BestFive returns the five cards that make up the best hand in h by
// checking every five-card subset. Hands with five or fewer cards are
// returned unchanged.
func BestFive(h Hand) []Card {
	cards := h.Cards()
	if len(cards) <= 5 {
		return cards
	}
	target := Evaluate(h)
	var best []Card
	combinations(len(cards), 5, func(idx []int) bool {
		var sub Hand
		for _, i := range idx {
			sub.AddCard(cards[i])
		}
		if Evaluate(sub) == target {
			best = sub.Cards()
			return false
		}
		return true
	})
	return best
}

// combinations calls fn with each k-subset of 0..n-1 in lexicographic order
// until fn returns false.
func combinations(n, k int, fn func([]int) bool) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func bit(r uint8) uint16 { return uint16(1) << r }

func topRank(mask uint16) uint8 { return uint8(bits.Len16(mask) - 1) }

func topRanks(mask uint16, n int) []uint8 {
	out := make([]uint8, 0, n)
	for mask != 0 && len(out) < n {
		r := topRank(mask)
		out = append(out, r)
		mask &^= bit(r)
	}
	return out
}

// straightHigh returns the top rank of the best straight in mask. The wheel
// (A-2-3-4-5) reports Five as its high card.
func straightHigh(mask uint16) (uint8, bool) {
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return topRank(seq) + 4, true
	}
	const wheel = 1<<Ace | 1<<Two | 1<<Three | 1<<Four | 1<<Five
	if mask&wheel == wheel {
		return Five, true
	}
	return 0, false
}
