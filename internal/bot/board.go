package bot

import (
	"slices"

	"github.com/lox/holdemtable/poker"
)

// Texture describes how coordinated the board is.
type Texture int

const (
	Dry Texture = iota
	SemiWet
	Wet
	VeryWet
)

func (t Texture) String() string {
	switch t {
	case Dry:
		return "dry"
	case SemiWet:
		return "semi-wet"
	case Wet:
		return "wet"
	}
	return "very wet"
}

// BoardTexture scores flush and straight possibilities and pairing on the
// board. Preflop boards are dry.
func BoardTexture(board []poker.Card) Texture {
	if len(board) < 3 {
		return Dry
	}

	wetness := 0
	h := poker.NewHand(board...)
	maxSuit := 0
	for suit := uint8(0); suit < 4; suit++ {
		maxSuit = max(maxSuit, popcount(h.GetSuitMask(suit)))
	}
	switch {
	case maxSuit >= 3:
		wetness += 2
	case maxSuit == 2:
		wetness++
	}

	ranks := make([]int, 0, len(board))
	for _, c := range board {
		ranks = append(ranks, int(c.Rank()))
	}
	slices.Sort(ranks)
	connected := 1
	for i := 1; i < len(ranks); i++ {
		if d := ranks[i] - ranks[i-1]; d > 0 && d <= 2 {
			connected++
		}
	}
	if connected >= 3 {
		wetness += 2
	}

	if distinct := popcount(h.RankMask()); distinct < len(board) {
		wetness++
	}

	switch {
	case wetness >= 5:
		return VeryWet
	case wetness >= 3:
		return Wet
	case wetness >= 1:
		return SemiWet
	}
	return Dry
}

func popcount(m uint16) int {
	n := 0
	for ; m != 0; m &= m - 1 {
		n++
	}
	return n
}
