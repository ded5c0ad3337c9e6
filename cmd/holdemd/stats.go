package main

import (
	"math"
	"slices"

	"github.com/lox/holdemtable/internal/game"
)

// SeatStats accumulates one seat's results in big blinds.
type SeatStats struct {
	Name          string
	Tier          string
	Hands         int
	Wins          int
	ShowdownWins  int
	SumBB         float64
	SumBB2        float64
	Values        []float64
	FinalChips    int
	BiggestPotWon int
}

func (s *SeatStats) Add(seat game.SeatResult, rec game.HandRecord, bigBlind int) {
	netBB := float64(seat.Delta) / float64(max(bigBlind, 1))
	s.Hands++
	s.SumBB += netBB
	s.SumBB2 += netBB * netBB
	s.Values = append(s.Values, netBB)
	s.FinalChips = seat.End

	for _, w := range rec.Winners {
		if w.Seat != seat.Seat {
			continue
		}
		s.Wins++
		if rec.Showdown {
			s.ShowdownWins++
		}
		s.BiggestPotWon = max(s.BiggestPotWon, w.Amount)
		break
	}
}

func (s *SeatStats) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

func (s *SeatStats) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

func (s *SeatStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *SeatStats) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 bounds the mean result per hand.
func (s *SeatStats) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

func (s *SeatStats) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
