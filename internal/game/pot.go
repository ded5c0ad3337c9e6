package game

import (
	"slices"

	"github.com/lox/holdemtable/poker"
)

// Pot is a main or side pot and the seats that can win it.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// Ledger records every chip a seat puts in during a hand, both for the
// whole hand and for the current street.
type Ledger struct {
	total  []int
	street []int
}

// NewLedger returns a ledger for a table with the given number of seats.
func NewLedger(seats int) *Ledger {
	return &Ledger{total: make([]int, seats), street: make([]int, seats)}
}

// take moves up to amount from the seat's stack into the ledger. A seat
// that runs out of chips goes all-in.
func (l *Ledger) take(s *Seat, amount int) int {
	paid := min(max(amount, 0), s.Chips)
	s.Chips -= paid
	l.total[s.Position] += paid
	if s.Chips == 0 && s.Status == StatusActive {
		s.Status = StatusAllIn
	}
	return paid
}

// CollectAnte takes a dead ante. It does not count towards the street bet.
func (l *Ledger) CollectAnte(s *Seat, amount int) int {
	return l.take(s, amount)
}

// CollectBlind posts a live blind. A short stack posts what it has.
func (l *Ledger) CollectBlind(s *Seat, amount int) int {
	return l.Commit(s, amount)
}

// Commit records a betting contribution of amount chips on this street.
func (l *Ledger) Commit(s *Seat, amount int) int {
	paid := l.take(s, amount)
	l.street[s.Position] += paid
	return paid
}

// Contributed is what pos has put in over the whole hand.
func (l *Ledger) Contributed(pos int) int { return l.total[pos] }

// StreetCommitted is what pos has put in on the current street.
func (l *Ledger) StreetCommitted(pos int) int { return l.street[pos] }

// Contributions returns a copy of the per-seat totals.
func (l *Ledger) Contributions() []int { return slices.Clone(l.total) }

// Total is every chip collected so far.
func (l *Ledger) Total() int {
	sum := 0
	for _, c := range l.total {
		sum += c
	}
	return sum
}

// HighestStreetBet is the largest commitment on the current street.
func (l *Ledger) HighestStreetBet() int {
	return slices.Max(l.street)
}

// ResetStreet clears street commitments between streets.
func (l *Ledger) ResetStreet() {
	clear(l.street)
}

// BuildPots splits the contributions into a main pot and side pots. Each
// distinct contribution level caps a pot funded by every seat up to that
// level; folded seats fund pots but are never eligible. Adjacent levels with
// the same eligible seats are merged.
func (l *Ledger) BuildPots(folded []bool) []Pot {
	var levels []int
	for _, c := range l.total {
		if c > 0 && !slices.Contains(levels, c) {
			levels = append(levels, c)
		}
	}
	slices.Sort(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		pot := Pot{Eligible: []int{}}
		for pos, c := range l.total {
			pot.Amount += min(c, level) - min(c, prev)
			if c >= level && !folded[pos] {
				pot.Eligible = append(pot.Eligible, pos)
			}
		}
		prev = level
		if n := len(pots); n > 0 && (len(pot.Eligible) == 0 || slices.Equal(pots[n-1].Eligible, pot.Eligible)) {
			pots[n-1].Amount += pot.Amount
			continue
		}
		pots = append(pots, pot)
	}

	// A lowest tier contributed only by folded seats joins the next pot.
	if len(pots) > 1 && len(pots[0].Eligible) == 0 {
		pots[1].Amount += pots[0].Amount
		pots = pots[1:]
	}
	// Every contributor folded: the seats still in take it all, even those
	// that put nothing in.
	if len(pots) == 1 && len(pots[0].Eligible) == 0 {
		for pos, f := range folded {
			if !f {
				pots[0].Eligible = append(pots[0].Eligible, pos)
			}
		}
	}
	return pots
}

// ClockwiseFrom lists every position starting left of the button.
func ClockwiseFrom(seats, button int) []int {
	order := make([]int, seats)
	for i := range order {
		order[i] = ((button+1+i)%seats + seats) % seats
	}
	return order
}

// Distribute awards each pot to the best eligible hands. A pot with a single
// eligible seat needs no ranking. Split pots share equally and any odd chips
// go to the first tied seat in order. The returned payouts always sum to the
// pots' total.
func Distribute(pots []Pot, values map[int]poker.HandValue, order []int) map[int]int {
	payouts := make(map[int]int)
	rank := func(pos int) int {
		if i := slices.Index(order, pos); i >= 0 {
			return i
		}
		return len(order) + pos
	}

	for _, pot := range pots {
		if pot.Amount == 0 || len(pot.Eligible) == 0 {
			continue
		}
		contenders := slices.Clone(pot.Eligible)
		slices.SortFunc(contenders, func(a, b int) int { return rank(a) - rank(b) })

		var winners []int
		if len(contenders) == 1 {
			winners = contenders
		} else {
			var best poker.HandValue
			for _, pos := range contenders {
				v, ok := values[pos]
				if !ok {
					continue
				}
				switch {
				case len(winners) == 0 || v > best:
					best, winners = v, []int{pos}
				case v == best:
					winners = append(winners, pos)
				}
			}
			if len(winners) == 0 {
				winners = contenders[:1]
			}
		}

		share := pot.Amount / len(winners)
		for _, pos := range winners {
			payouts[pos] += share
		}
		payouts[winners[0]] += pot.Amount - share*len(winners)
	}
	return payouts
}
