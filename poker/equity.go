package poker

import (
	"context"
	rand "math/rand/v2"
)

// EquityResult is the outcome of a Monte Carlo equity run.
type EquityResult struct {
	Wins        int
	Ties        int
	Simulations int
}

// WinRate is the fraction of outright wins.
func (e EquityResult) WinRate() float64 {
	if e.Simulations == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Simulations)
}

// TieRate is the fraction of split pots.
func (e EquityResult) TieRate() float64 {
	if e.Simulations == 0 {
		return 0
	}
	return float64(e.Ties) / float64(e.Simulations)
}

// LossRate is the fraction of losses.
func (e EquityResult) LossRate() float64 {
	if e.Simulations == 0 {
		return 0
	}
	return 1 - e.WinRate() - e.TieRate()
}

// Equity counts wins as 1 and ties as 1/2.
func (e EquityResult) Equity() float64 {
	if e.Simulations == 0 {
		return 0
	}
	return (float64(e.Wins) + float64(e.Ties)*0.5) / float64(e.Simulations)
}

// Equity estimates how often hole wins against opponents random hands once
// the board is completed. It stops early, returning what it has, when ctx is
// done; callers running under a decision budget rely on that.
func Equity(ctx context.Context, hole, board Hand, opponents, simulations int, rng *rand.Rand) EquityResult {
	var res EquityResult
	if hole.CountCards() != 2 || board.CountCards() > 5 {
		return res
	}
	opponents = max(opponents, 1)

	remaining := (FullDeck &^ hole &^ board).Cards()
	need := 5 - board.CountCards() + 2*opponents
	if need > len(remaining) {
		return res
	}

	for sim := 0; sim < simulations; sim++ {
		if sim&63 == 0 && ctx.Err() != nil {
			break
		}
		// Partial Fisher-Yates: only the cards we deal need shuffling.
		for i := 0; i < need; i++ {
			j := i + rng.IntN(len(remaining)-i)
			remaining[i], remaining[j] = remaining[j], remaining[i]
		}

		full := board
		next := 0
		for full.CountCards() < 5 {
			full.AddCard(remaining[next])
			next++
		}

		hero := Evaluate(hole | full)
		lost, tied := false, false
		for o := 0; o < opponents && !lost; o++ {
			opp := NewHand(remaining[next], remaining[next+1])
			next += 2
			switch Evaluate(opp | full).Compare(hero) {
			case 1:
				lost = true
			case 0:
				tied = true
			}
		}

		res.Simulations++
		switch {
		case lost:
		case tied:
			res.Ties++
		default:
			res.Wins++
		}
	}
	return res
}
