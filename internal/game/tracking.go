package game

import "github.com/lox/holdemtable/poker"

// CardTracking counts the cards a seat has not seen yet.
type CardTracking struct {
	Seen      []poker.Card   `json:"seen"`
	Remaining int            `json:"remaining"`
	BySuit    map[string]int `json:"by_suit"`
	ByRank    map[string]int `json:"by_rank"`
}

var suitNames = [...]string{"clubs", "diamonds", "hearts", "spades"}

// TrackCards summarises the unseen deck given a seat's hole cards and the
// board.
func TrackCards(hole []poker.Card, board []poker.Card) CardTracking {
	known := poker.NewHand(hole...) | poker.NewHand(board...)
	unseen := poker.FullDeck &^ known

	ct := CardTracking{
		Seen:      known.Cards(),
		Remaining: unseen.CountCards(),
		BySuit:    make(map[string]int, 4),
		ByRank:    make(map[string]int, 13),
	}
	for suit := uint8(0); suit < 4; suit++ {
		ct.BySuit[suitNames[suit]] = popcount16(unseen.GetSuitMask(suit))
	}
	for _, c := range unseen.Cards() {
		ct.ByRank[poker.RankName(c.Rank())]++
	}
	return ct
}

func popcount16(m uint16) int {
	n := 0
	for ; m != 0; m &= m - 1 {
		n++
	}
	return n
}
