package game

import (
	"reflect"
	"testing"

	"github.com/lox/holdemtable/poker"
)

func ledgerWith(t *testing.T, contributions ...int) (*Ledger, []Seat) {
	t.Helper()
	seats := make([]Seat, len(contributions))
	l := NewLedger(len(contributions))
	for i, c := range contributions {
		seats[i] = Seat{Position: i, Chips: 1000, Status: StatusActive}
		if got := l.Commit(&seats[i], c); got != c {
			t.Fatalf("seat %d committed %d, want %d", i, got, c)
		}
	}
	return l, seats
}

func potsTotal(pots []Pot) int {
	sum := 0
	for _, p := range pots {
		sum += p.Amount
	}
	return sum
}

func TestBuildPotsSidePot(t *testing.T) {
	t.Parallel()

	l, _ := ledgerWith(t, 100, 200, 200)
	pots := l.BuildPots([]bool{false, false, false})

	want := []Pot{
		{Amount: 300, Eligible: []int{0, 1, 2}},
		{Amount: 200, Eligible: []int{1, 2}},
	}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("pots = %+v, want %+v", pots, want)
	}
	if potsTotal(pots) != l.Total() {
		t.Fatalf("pots hold %d, ledger %d", potsTotal(pots), l.Total())
	}
}

func TestBuildPotsUncalledExcess(t *testing.T) {
	t.Parallel()

	l, _ := ledgerWith(t, 100, 100, 300)
	pots := l.BuildPots([]bool{false, false, false})

	want := []Pot{
		{Amount: 300, Eligible: []int{0, 1, 2}},
		{Amount: 200, Eligible: []int{2}},
	}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("pots = %+v, want %+v", pots, want)
	}
}

func TestBuildPotsFoldedContributionMerges(t *testing.T) {
	t.Parallel()

	l, _ := ledgerWith(t, 50, 200, 200)
	pots := l.BuildPots([]bool{true, false, false})

	want := []Pot{{Amount: 450, Eligible: []int{1, 2}}}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("pots = %+v, want %+v", pots, want)
	}
}

func TestBuildPotsEveryContributorFolded(t *testing.T) {
	t.Parallel()

	l, _ := ledgerWith(t, 0, 5, 10)
	pots := l.BuildPots([]bool{false, true, true})

	want := []Pot{{Amount: 15, Eligible: []int{0}}}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("pots = %+v, want %+v", pots, want)
	}
	if got := Distribute(pots, nil, []int{1, 2, 0}); got[0] != 15 {
		t.Fatalf("payouts = %v", got)
	}
}

func TestBuildPotsMultipleAllIns(t *testing.T) {
	t.Parallel()

	l, _ := ledgerWith(t, 50, 100, 250, 250)
	pots := l.BuildPots([]bool{false, false, false, false})

	want := []Pot{
		{Amount: 200, Eligible: []int{0, 1, 2, 3}},
		{Amount: 150, Eligible: []int{1, 2, 3}},
		{Amount: 300, Eligible: []int{2, 3}},
	}
	if !reflect.DeepEqual(pots, want) {
		t.Fatalf("pots = %+v, want %+v", pots, want)
	}
}

func TestCollectBlindShortStackGoesAllIn(t *testing.T) {
	t.Parallel()

	s := Seat{Position: 0, Chips: 4, Status: StatusActive}
	l := NewLedger(2)
	if paid := l.CollectBlind(&s, 10); paid != 4 {
		t.Fatalf("paid %d, want 4", paid)
	}
	if s.Chips != 0 || s.Status != StatusAllIn {
		t.Fatalf("seat = %+v, want all-in with no chips", s)
	}
	if l.StreetCommitted(0) != 4 || l.Contributed(0) != 4 {
		t.Fatalf("ledger street=%d total=%d", l.StreetCommitted(0), l.Contributed(0))
	}
}

func TestCollectAnteIsDeadMoney(t *testing.T) {
	t.Parallel()

	s := Seat{Position: 1, Chips: 1000, Status: StatusActive}
	l := NewLedger(2)
	l.CollectAnte(&s, 50)
	if l.StreetCommitted(1) != 0 {
		t.Fatalf("ante counted towards the street bet: %d", l.StreetCommitted(1))
	}
	if l.Total() != 50 || s.Chips != 950 {
		t.Fatalf("total=%d chips=%d", l.Total(), s.Chips)
	}
}

func TestDistributeSplitRemainder(t *testing.T) {
	t.Parallel()

	pots := []Pot{{Amount: 301, Eligible: []int{1, 3}}}
	v := poker.Evaluate(poker.MustParseHand("As Ks Qd Jc Th"))
	values := map[int]poker.HandValue{1: v, 3: v}

	// Button on 2: seat 3 is first clockwise and takes the odd chip.
	payouts := Distribute(pots, values, ClockwiseFrom(4, 2))
	if payouts[3] != 151 || payouts[1] != 150 {
		t.Fatalf("payouts = %v", payouts)
	}
}

func TestDistributeSidePots(t *testing.T) {
	t.Parallel()

	pots := []Pot{
		{Amount: 300, Eligible: []int{0, 1, 2}},
		{Amount: 400, Eligible: []int{1, 2}},
	}
	values := map[int]poker.HandValue{
		0: poker.Evaluate(poker.MustParseHand("As Ah 2c 7d 9d Jc 3s")),
		1: poker.Evaluate(poker.MustParseHand("Ks Kh 2c 7d 9d Jc 3s")),
		2: poker.Evaluate(poker.MustParseHand("Qs Qh 2c 7d 9d Jc 3s")),
	}
	payouts := Distribute(pots, values, ClockwiseFrom(3, 0))
	if payouts[0] != 300 || payouts[1] != 400 || payouts[2] != 0 {
		t.Fatalf("payouts = %v", payouts)
	}
	total := 0
	for _, p := range payouts {
		total += p
	}
	if total != potsTotal(pots) {
		t.Fatalf("paid %d of %d", total, potsTotal(pots))
	}
}

func TestDistributeSingleEligibleNeedsNoRanking(t *testing.T) {
	t.Parallel()

	pots := []Pot{{Amount: 75, Eligible: []int{2}}}
	payouts := Distribute(pots, nil, ClockwiseFrom(3, 0))
	if payouts[2] != 75 {
		t.Fatalf("payouts = %v", payouts)
	}
}
