package game

import (
	"errors"
	"testing"
)

func TestAdvanceButton(t *testing.T) {
	t.Parallel()

	occupied := []bool{false, true, false, true, true, false}
	tests := []struct {
		prev, want int
	}{
		{-1, 1},
		{1, 3},
		{3, 4},
		{4, 1},
		{2, 3}, // previous button seat has since emptied
	}
	for _, tt := range tests {
		got, err := AdvanceButton(occupied, tt.prev)
		if err != nil {
			t.Fatalf("AdvanceButton(%d): %v", tt.prev, err)
		}
		if got != tt.want {
			t.Errorf("AdvanceButton(%d) = %d, want %d", tt.prev, got, tt.want)
		}
	}

	_, err := AdvanceButton([]bool{false, true, false}, 1)
	if !errors.Is(err, ErrInsufficientPlayers) {
		t.Fatalf("expected ErrInsufficientPlayers, got %v", err)
	}
}

func TestButtonVisitsEachSeatOncePerOrbit(t *testing.T) {
	t.Parallel()

	occupied := []bool{true, false, true, true, false, true, false, false, true}
	n := countTrue(occupied)
	visits := make(map[int]int)
	button := -1
	for range n * 3 {
		var err error
		button, err = AdvanceButton(occupied, button)
		if err != nil {
			t.Fatal(err)
		}
		visits[button]++
	}
	for pos, ok := range occupied {
		if ok && visits[pos] != 3 {
			t.Errorf("seat %d held the button %d times over three orbits", pos, visits[pos])
		}
		if !ok && visits[pos] != 0 {
			t.Errorf("empty seat %d got the button", pos)
		}
	}
}

func TestBlindSeats(t *testing.T) {
	t.Parallel()

	sb, bb := BlindSeats([]bool{true, false, true}, 2)
	if sb != 2 || bb != 0 {
		t.Errorf("heads-up blinds = %d/%d, want button on the small blind", sb, bb)
	}

	sb, bb = BlindSeats([]bool{true, true, false, true}, 3)
	if sb != 0 || bb != 1 {
		t.Errorf("blinds = %d/%d, want 0/1", sb, bb)
	}
}

func TestFirstActor(t *testing.T) {
	t.Parallel()

	occupied := []bool{true, true, false, true, true}
	if got := FirstActor(ModeAnte, occupied, 1); got != 3 {
		t.Errorf("ante first actor = %d, want 3", got)
	}
	if got := FirstActor(ModeBlinds, occupied, 1); got != 0 {
		t.Errorf("blinds first actor = %d, want 0 (after big blind on 4)", got)
	}
	if got := FirstActor(ModeBlinds, []bool{true, true}, 0); got != 0 {
		t.Errorf("heads-up first actor = %d, want the button", got)
	}
}
