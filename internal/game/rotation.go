package game

import "fmt"

// NextSeat returns the first seat clockwise after from for which ok holds,
// or -1 when there is none. from may be -1.
func NextSeat(ok []bool, from int) int {
	n := len(ok)
	for i := 1; i <= n; i++ {
		p := ((from+i)%n + n) % n
		if ok[p] {
			return p
		}
	}
	return -1
}

func countTrue(ok []bool) int {
	n := 0
	for _, v := range ok {
		if v {
			n++
		}
	}
	return n
}

// AdvanceButton moves the button to the next occupied seat clockwise from
// prev. A negative prev places it on the lowest occupied seat.
func AdvanceButton(occupied []bool, prev int) (int, error) {
	if n := countTrue(occupied); n < 2 {
		return -1, fmt.Errorf("%w: %d seated", ErrInsufficientPlayers, n)
	}
	if prev < 0 || prev >= len(occupied) {
		return NextSeat(occupied, -1), nil
	}
	return NextSeat(occupied, prev), nil
}

// BlindSeats returns the small and big blind positions for a button.
// Heads-up the button posts the small blind.
func BlindSeats(occupied []bool, button int) (sb, bb int) {
	if countTrue(occupied) == 2 {
		return button, NextSeat(occupied, button)
	}
	sb = NextSeat(occupied, button)
	return sb, NextSeat(occupied, sb)
}

// FirstActor is the first seat to act preflop. In ante mode it is the seat
// immediately clockwise of the button; with blinds it follows the big blind.
func FirstActor(mode Mode, occupied []bool, button int) int {
	if mode == ModeAnte {
		return NextSeat(occupied, button)
	}
	_, bb := BlindSeats(occupied, button)
	return NextSeat(occupied, bb)
}
