// Package bot implements the computer opponents that fill seats at a table.
//
// Each tier is a Strategy. Decide runs a strategy under a time budget and
// checks its answer against the legal actions, so a slow or confused bot can
// never stall the table or corrupt a hand.
package bot

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/poker"
)

// Tier selects a bot's playing strength.
type Tier int

const (
	Beginner Tier = iota
	Intermediate
	Advanced
)

func (t Tier) String() string {
	switch t {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	}
	return "unknown"
}

// ParseTier accepts "beginner", "intermediate" or "advanced".
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return Beginner, nil
	case "intermediate":
		return Intermediate, nil
	case "advanced":
		return Advanced, nil
	}
	return Beginner, fmt.Errorf("unknown bot tier %q", s)
}

// Position is a seat's place in the betting order.
type Position int

const (
	Early Position = iota
	Middle
	Late
)

func (p Position) String() string {
	switch p {
	case Early:
		return "early"
	case Late:
		return "late"
	}
	return "middle"
}

// PositionOf classifies seat by where it sits in order, the dealt-in seats
// listed from the left of the button. The button is always late.
func PositionOf(order []int, seat int) Position {
	n := len(order)
	idx := -1
	for i, pos := range order {
		if pos == seat {
			idx = i
		}
	}
	switch {
	case idx < 0 || n == 0:
		return Middle
	case idx == n-1 || idx*3 >= 2*n:
		return Late
	case idx*3 < n:
		return Early
	}
	return Middle
}

// View is what a bot knows when it is asked to act.
type View struct {
	Seat      int
	Hole      []poker.Card
	Board     []poker.Card
	Street    game.Street
	Pot       int
	Betting   game.BettingView
	BigBlind  int
	Position  Position
	Opponents []string // ids of opponents still holding cards
}

func (v View) toCall() int { return v.Betting.ToCall() }

// potOdds is the share of the final pot the seat must put in to call.
func (v View) potOdds() float64 {
	call := v.toCall()
	if call == 0 {
		return 0
	}
	return float64(call) / float64(v.Pot+call)
}

// Decision is a strategy's answer along with a short explanation.
type Decision struct {
	Action game.Action
	Reason string
}

// Strategy chooses an action for the seat described by a View. It should
// return promptly once ctx is done.
type Strategy interface {
	Decide(ctx context.Context, v View, legal []game.LegalAction) Decision
}

// Observer is implemented by strategies that learn from other seats.
type Observer interface {
	Observe(opponentID string, kind game.ActionKind)
}

// Decide runs s under budget. The returned action has been checked against
// legal and clamped; ok is false when the strategy overran or chose
// something illegal, in which case the caller applies the timeout default.
func Decide(ctx context.Context, s Strategy, v View, legal []game.LegalAction, budget time.Duration) (Decision, bool) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	result := make(chan Decision, 1)
	go func() {
		result <- s.Decide(ctx, v, legal)
	}()

	var d Decision
	select {
	case d = <-result:
	case <-ctx.Done():
		return Decision{Reason: "decision budget exceeded"}, false
	}

	d.Action.Seat = v.Seat
	a, err := game.Normalize(v.Betting, d.Action)
	if err != nil {
		return d, false
	}
	d.Action = a
	return d, true
}

// ViewFor builds the view of seat in the running hand h at table t.
func ViewFor(t *game.Table, h *game.Hand, seat int) View {
	order := h.Order()
	var opponents []string
	for _, pos := range order {
		s := &t.Seats[pos]
		if pos == seat || s.Status == game.StatusFolded || s.Occupant == nil {
			continue
		}
		opponents = append(opponents, s.Occupant.ID)
	}
	return View{
		Seat:      seat,
		Hole:      h.Hole(seat),
		Board:     slices.Clone(h.Board),
		Street:    h.Street,
		Pot:       h.Pot(),
		Betting:   h.BettingView(seat),
		BigBlind:  t.Config.MinBet(),
		Position:  PositionOf(order, seat),
		Opponents: opponents,
	}
}
