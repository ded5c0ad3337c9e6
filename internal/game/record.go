package game

import (
	"time"

	"github.com/lox/holdemtable/poker"
)

// HandRecord is the immutable history of a finished hand.
type HandRecord struct {
	ID         string         `json:"id"`
	TableID    string         `json:"table_id"`
	HandNumber int            `json:"hand_number"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	Mode       Mode           `json:"mode"`
	SmallBlind int            `json:"small_blind,omitempty"`
	BigBlind   int            `json:"big_blind,omitempty"`
	Ante       int            `json:"ante,omitempty"`
	Button     int            `json:"button"`
	Board      []poker.Card   `json:"board"`
	Pot        int            `json:"pot"`
	Pots       []Pot          `json:"pots"`
	Showdown   bool           `json:"showdown"`
	Winners    []Winner       `json:"winners"`
	Seats      []SeatResult   `json:"seats"`
	Actions    []ActionRecord `json:"actions"`
}

// Winner is a seat that collected chips.
type Winner struct {
	Seat   int          `json:"seat"`
	Name   string       `json:"name"`
	Amount int          `json:"amount"`
	Hand   string       `json:"hand,omitempty"`
	Cards  []poker.Card `json:"cards,omitempty"`
}

// SeatResult is one dealt-in seat's outcome. Hole is only set for seats
// that reached showdown.
type SeatResult struct {
	Seat   int          `json:"seat"`
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Bot    string       `json:"bot,omitempty"`
	Start  int          `json:"start"`
	End    int          `json:"end"`
	Delta  int          `json:"delta"`
	Folded bool         `json:"folded"`
	Hole   []poker.Card `json:"hole,omitempty"`
}

// Forced bet kinds in ActionRecord.Kind.
const (
	KindAnte       = "ante"
	KindSmallBlind = "small_blind"
	KindBigBlind   = "big_blind"
)

// ActionRecord is one line of the action log. Kind is an ActionKind name or
// one of the forced bet kinds; Amount is the street total after the action.
type ActionRecord struct {
	Street  Street `json:"street"`
	Seat    int    `json:"seat"`
	Kind    string `json:"kind"`
	Amount  int    `json:"amount"`
	Paid    int    `json:"paid"`
	Timeout bool   `json:"timeout,omitempty"`
}

// Winner returns the winner for a seat, if any.
func (r HandRecord) Winner(seat int) (Winner, bool) {
	for _, w := range r.Winners {
		if w.Seat == seat {
			return w, true
		}
	}
	return Winner{}, false
}

// NetChange sums every seat delta; it is zero for a consistent record.
func (r HandRecord) NetChange() int {
	sum := 0
	for _, s := range r.Seats {
		sum += s.Delta
	}
	return sum
}
