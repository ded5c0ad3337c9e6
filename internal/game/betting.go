package game

import (
	"fmt"
	"strings"
)

// Street is a betting round of a hand.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	}
	return "unknown"
}

func (s Street) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Street) UnmarshalText(text []byte) error {
	for v := Preflop; v <= Showdown; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown street %q", text)
}

// ActionKind is what a seat chose to do.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

var actionNames = [...]string{"fold", "check", "call", "bet", "raise", "allin"}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[k]
}

// ParseActionKind accepts the wire names plus "all-in" and "all_in".
func ParseActionKind(s string) (ActionKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "all-in", "all_in":
		return AllIn, nil
	}
	for i, name := range actionNames {
		if name == s {
			return ActionKind(i), nil
		}
	}
	return Fold, fmt.Errorf("unknown action %q", s)
}

func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ActionKind) UnmarshalText(text []byte) error {
	v, err := ParseActionKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Action is a seat's move. For bet and raise Amount is the total the seat
// will have committed on this street ("raise to"). It is ignored for the
// other kinds.
type Action struct {
	Seat   int        `json:"seat"`
	Kind   ActionKind `json:"kind"`
	Amount int        `json:"amount,omitempty"`
}

func (a Action) String() string {
	if a.Amount > 0 {
		return fmt.Sprintf("seat %d %s %d", a.Seat, a.Kind, a.Amount)
	}
	return fmt.Sprintf("seat %d %s", a.Seat, a.Kind)
}

// LegalAction is one choice open to the acting seat. Min and Max are
// street-commitment totals; both are zero for fold and check.
type LegalAction struct {
	Kind ActionKind `json:"kind"`
	Min  int        `json:"min,omitempty"`
	Max  int        `json:"max,omitempty"`
}

// BettingView is everything LegalActions needs to know about one seat.
type BettingView struct {
	Stack      int  // chips behind
	Committed  int  // already in on this street
	CurrentBet int  // highest commitment on this street
	MinRaise   int  // smallest legal raise increment
	CanRaise   bool // false once an incomplete raise or lack of opponents closes raising
}

// ToCall is what the seat still owes to match the current bet.
func (v BettingView) ToCall() int { return max(v.CurrentBet-v.Committed, 0) }

// LegalActions computes the legal choices for a seat. It is pure.
func LegalActions(v BettingView) []LegalAction {
	if v.Stack <= 0 {
		return nil
	}
	toCall := v.ToCall()
	allInTo := v.Committed + v.Stack
	legal := []LegalAction{{Kind: Fold}}

	if toCall == 0 {
		legal = append(legal, LegalAction{Kind: Check})
	} else if v.Stack > toCall {
		legal = append(legal, LegalAction{Kind: Call, Min: v.CurrentBet, Max: v.CurrentBet})
	}

	if v.CanRaise {
		if v.CurrentBet == 0 && v.Stack > v.MinRaise {
			legal = append(legal, LegalAction{Kind: Bet, Min: v.MinRaise, Max: allInTo})
		}
		if v.CurrentBet > 0 && v.Stack > toCall+v.MinRaise {
			legal = append(legal, LegalAction{Kind: Raise, Min: v.CurrentBet + v.MinRaise, Max: allInTo})
		}
	}

	// Shoving is always open unless raising is closed and the stack covers
	// the call; then calling is the most the seat can do.
	if v.CanRaise || v.Stack <= toCall {
		legal = append(legal, LegalAction{Kind: AllIn, Min: allInTo, Max: allInTo})
	}
	return legal
}

// Find returns the legal entry for kind.
func Find(legal []LegalAction, kind ActionKind) (LegalAction, bool) {
	for _, l := range legal {
		if l.Kind == kind {
			return l, true
		}
	}
	return LegalAction{}, false
}

// Normalize checks a against the legal set for v and returns it with its
// amount clamped into range. A call the seat cannot cover becomes all-in, as
// does a bet or raise of the whole stack.
func Normalize(v BettingView, a Action) (Action, error) {
	legal := LegalActions(v)
	if len(legal) == 0 {
		return a, illegal(a, "seat has no chips behind")
	}
	allInTo := v.Committed + v.Stack

	switch a.Kind {
	case Fold, Check:
		a.Amount = 0
	case Call:
		if v.ToCall() == 0 {
			return a, illegal(a, "nothing to call")
		}
		if v.Stack <= v.ToCall() {
			a.Kind = AllIn
			a.Amount = allInTo
			return a, nil
		}
		a.Amount = v.CurrentBet
	case Bet, Raise:
		l, ok := Find(legal, a.Kind)
		if !ok {
			return a, illegal(a, "%s not available (current bet %d, stack %d)", a.Kind, v.CurrentBet, v.Stack)
		}
		a.Amount = min(max(a.Amount, l.Min), l.Max)
		if a.Amount == allInTo {
			a.Kind = AllIn
		}
		return a, nil
	case AllIn:
		a.Amount = allInTo
	default:
		return a, illegal(a, "unknown action kind")
	}
	if _, ok := Find(legal, a.Kind); !ok {
		return a, illegal(a, "%s not available (to call %d)", a.Kind, v.ToCall())
	}
	return a, nil
}
