package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/history"
	"github.com/lox/holdemtable/internal/phh"
)

func TestSeatStats(t *testing.T) {
	t.Parallel()

	var s SeatStats
	rec := game.HandRecord{Showdown: true, Winners: []game.Winner{{Seat: 2, Amount: 40}}}
	for _, delta := range []int{20, -10, 30, -20} {
		s.Add(game.SeatResult{Seat: 2, Delta: delta, End: 1000 + delta}, rec, 10)
	}
	if s.Hands != 4 || s.Wins != 4 || s.ShowdownWins != 4 {
		t.Fatalf("counts = %+v", s)
	}
	if got := s.Mean(); got != 0.5 {
		t.Errorf("Mean = %v, want 0.5", got)
	}
	if got := s.Median(); got != 0.5 {
		t.Errorf("Median = %v, want 0.5", got)
	}
	if lo, hi := s.ConfidenceInterval95(); lo >= 0.5 || hi <= 0.5 {
		t.Errorf("interval [%v, %v] should contain the mean", lo, hi)
	}
	if s.BiggestPotWon != 40 || s.FinalChips != 980 {
		t.Errorf("pot %d chips %d", s.BiggestPotWon, s.FinalChips)
	}
}

func TestBuildTable(t *testing.T) {
	t.Parallel()

	cmd := SimulateCmd{Bots: []string{"beginner", "advanced", "intermediate"}, Mode: "blinds", SmallBlind: 1, BigBlind: 2, Chips: 100}
	table, err := cmd.buildTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Seats) != 4 {
		t.Errorf("three bots should sit at a four-seat table, got %d", len(table.Seats))
	}
	if !strings.HasPrefix(table.ID, "sim-") {
		t.Errorf("table id %q", table.ID)
	}
	if r := table.Roster(); len(r.Players) != 3 || r.Players[1].Tier != "advanced" {
		t.Errorf("roster %+v", r.Players)
	}

	cmd.Bots = []string{"beginner"}
	if _, err := cmd.buildTable(); err == nil {
		t.Error("a single bot should be rejected")
	}
	cmd.Bots = []string{"beginner", "wizard"}
	if _, err := cmd.buildTable(); err == nil {
		t.Error("unknown tier should be rejected")
	}
}

func TestSimulate(t *testing.T) {
	t.Parallel()

	cmd := SimulateCmd{Bots: []string{"beginner", "beginner"}, Mode: "blinds", SmallBlind: 5, BigBlind: 10, Chips: 500}
	table, err := cmd.buildTable()
	if err != nil {
		t.Fatal(err)
	}
	store := history.NewMemoryStore()
	recorder := history.NewRecorder(zerolog.Nop(), store, history.RecorderConfig{})
	defer recorder.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stats, played, err := simulate(ctx, zerolog.Nop(), table, recorder, 5, 11, 200*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if played == 0 {
		t.Fatal("no hands played")
	}

	total := 0
	for _, s := range stats {
		if s.Hands != played {
			t.Errorf("%s played %d of %d hands", s.Name, s.Hands, played)
		}
		total += s.FinalChips
	}
	if total != 1000 {
		t.Errorf("chips not conserved: %d", total)
	}

	var out bytes.Buffer
	printSummary(&out, stats, played, time.Second)
	if !strings.Contains(out.String(), "bb/hand") || !strings.Contains(out.String(), "B-0") {
		t.Errorf("summary missing columns:\n%s", out.String())
	}
}

func TestHistoryOutput(t *testing.T) {
	t.Parallel()

	rec := game.HandRecord{
		ID:         "hand-7",
		TableID:    "main",
		HandNumber: 7,
		StartedAt:  time.Date(2025, 11, 14, 15, 22, 0, 0, time.UTC),
		Mode:       game.ModeBlinds,
		SmallBlind: 5,
		BigBlind:   10,
		Pot:        15,
		Winners:    []game.Winner{{Seat: 1, Name: "bob", Amount: 15}},
		Seats: []game.SeatResult{
			{Seat: 0, ID: "a", Name: "ann", Start: 1000, End: 995, Delta: -5, Folded: true},
			{Seat: 1, ID: "b", Name: "bob", Start: 1000, End: 1005, Delta: 5},
		},
		Actions: []game.ActionRecord{
			{Seat: 0, Kind: game.KindSmallBlind, Amount: 5, Paid: 5},
			{Seat: 1, Kind: game.KindBigBlind, Amount: 10, Paid: 10},
			{Seat: 0, Kind: game.Fold.String(), Amount: 5},
		},
	}

	var table bytes.Buffer
	writeHandTable(&table, []game.HandRecord{rec})
	if !strings.Contains(table.String(), "2025-11-14 15:22:00") || !strings.Contains(table.String(), "bob +15") {
		t.Errorf("table output:\n%s", table.String())
	}

	var out bytes.Buffer
	if err := writePHH(&out, []game.HandRecord{rec}); err != nil {
		t.Fatal(err)
	}
	body, ok := strings.CutPrefix(out.String(), "[7]\n")
	if !ok {
		t.Fatalf("missing section header:\n%s", out.String())
	}
	h, err := phh.Decode([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if h.HandID != "hand-7" || len(h.Players) != 2 || h.Winnings[1] != 15 {
		t.Errorf("decoded %+v", h)
	}
}
