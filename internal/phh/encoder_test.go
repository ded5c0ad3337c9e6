package phh_test

import (
	"bytes"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/phh"
	"github.com/lox/holdemtable/poker"
)

func TestFormatAction(t *testing.T) {
	tests := []struct {
		name      string
		idx       int
		rec       game.ActionRecord
		high      int
		want      string
		shouldUse bool
	}{
		{"fold", 0, game.ActionRecord{Kind: "fold"}, 10, "p1 f", true},
		{"check", 1, game.ActionRecord{Kind: "check"}, 0, "p2 cc", true},
		{"call", 3, game.ActionRecord{Kind: "call", Amount: 50, Paid: 40}, 50, "p4 cc", true},
		{"raise", 0, game.ActionRecord{Kind: "raise", Amount: 120, Paid: 110}, 40, "p1 cbr 120", true},
		{"bet", 1, game.ActionRecord{Kind: "bet", Amount: 40, Paid: 40}, 0, "p2 cbr 40", true},
		{"allin raise", 0, game.ActionRecord{Kind: "allin", Amount: 350, Paid: 350}, 100, "p1 cbr 350", true},
		{"allin call", 2, game.ActionRecord{Kind: "allin", Amount: 60, Paid: 60}, 100, "p3 cc", true},
		{"small blind", 0, game.ActionRecord{Kind: game.KindSmallBlind, Amount: 5, Paid: 5}, 0, "", false},
		{"ante", 1, game.ActionRecord{Kind: game.KindAnte, Paid: 50}, 0, "", false},
		{"unknown", 2, game.ActionRecord{Kind: "weird", Amount: 10}, 0, "# p3 weird 10", true},
	}

	for _, tt := range tests {
		got, ok := phh.FormatAction(tt.idx, tt.rec, tt.high)
		if ok != tt.shouldUse {
			t.Fatalf("%s: ok=%v want %v", tt.name, ok, tt.shouldUse)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func TestCards(t *testing.T) {
	cards := poker.MustParseHand("Ah Kh").Cards()
	if got := phh.FormatCards(cards[:1], 2); got != cards[0].String()+"??" {
		t.Fatalf("FormatCards padded = %q", got)
	}
	if got := phh.FormatCards(nil, 2); got != "????" {
		t.Fatalf("FormatCards(nil) = %q", got)
	}
	parsed, err := phh.ParseCards("AhKh")
	if err != nil || len(parsed) != 2 {
		t.Fatalf("ParseCards = %v, %v", parsed, err)
	}
	if got, err := phh.ParseCards("????"); err != nil || got != nil {
		t.Fatalf("ParseCards(????) = %v, %v", got, err)
	}
	if _, err := phh.ParseCards("AhK"); err == nil {
		t.Fatal("expected error for odd card string")
	}
}

// playShowdown plays a three-handed hand: the button folds, the small blind
// raises with aces and bets the flop, the big blind calls down with kings.
func playShowdown(t *testing.T) game.HandRecord {
	t.Helper()
	tbl, err := game.NewTable("main", game.Config{
		Capacity: 4, Mode: game.ModeBlinds, SmallBlind: 5, BigBlind: 10, InitialChips: 1000,
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"dana", "eli", "fran"} {
		if err := tbl.Join(i, game.Occupant{ID: "id-" + name, Name: name}, 0); err != nil {
			t.Fatal(err)
		}
	}
	var top []poker.Card
	for _, s := range strings.Fields("Ah Kd 7c Ad Kc 2h Qs Js 3d 9c 4h") {
		c, err := poker.ParseCard(s)
		if err != nil {
			t.Fatal(err)
		}
		top = append(top, c)
	}
	start := time.Date(2025, time.November, 14, 15, 22, 0, 0, time.UTC)
	h, err := game.StartHand(tbl,
		game.WithDeck(poker.NewStackedDeck(top...)),
		game.WithHandID("hand-1"),
		game.WithClock(func() time.Time { return start }))
	if err != nil {
		t.Fatal(err)
	}

	steps := []game.Action{
		{Seat: 0, Kind: game.Fold},
		{Seat: 1, Kind: game.Raise, Amount: 30},
		{Seat: 2, Kind: game.Call},
		{Seat: 1, Kind: game.Bet, Amount: 50},
		{Seat: 2, Kind: game.Call},
		{Seat: 1, Kind: game.Check},
		{Seat: 2, Kind: game.Check},
		{Seat: 1, Kind: game.Check},
		{Seat: 2, Kind: game.Check},
	}
	for _, a := range steps {
		if err := h.ProcessAction(a); err != nil {
			t.Fatalf("%+v: %v", a, err)
		}
	}
	rec, ok := h.Record()
	if !ok {
		t.Fatal("hand should be settled")
	}
	return rec
}

func TestFromRecord(t *testing.T) {
	rec := playShowdown(t)
	hand := phh.FromRecord(rec)

	wantActions := []string{
		"d dh p1 AhAd",
		"d dh p2 KdKc",
		"d dh p3 ????",
		"p3 f",
		"p1 cbr 30",
		"p2 cc",
		"d db QsJs3d",
		"p1 cbr 50",
		"p2 cc",
		"d db 9c",
		"p1 cc",
		"p2 cc",
		"d db 4h",
		"p1 cc",
		"p2 cc",
		"p1 sm AhAd",
		"p2 sm KdKc",
	}
	if !slices.Equal(hand.Actions, wantActions) {
		t.Fatalf("actions:\n got %q\nwant %q", hand.Actions, wantActions)
	}
	if !slices.Equal(hand.Seats, []int{2, 3, 1}) {
		t.Errorf("seats = %v", hand.Seats)
	}
	if !slices.Equal(hand.BlindsOrStraddles, []int{5, 10, 0}) {
		t.Errorf("blinds = %v", hand.BlindsOrStraddles)
	}
	if !slices.Equal(hand.Winnings, []int{160, 0, 0}) {
		t.Errorf("winnings = %v", hand.Winnings)
	}
	if !slices.Equal(hand.FinishingStacks, []int{1080, 920, 1000}) {
		t.Errorf("finishing stacks = %v", hand.FinishingStacks)
	}
	if hand.Time != "15:22:00" || hand.Day != 14 || hand.Month != 11 || hand.Year != 2025 {
		t.Errorf("time fields = %s %d/%d/%d", hand.Time, hand.Day, hand.Month, hand.Year)
	}

	var buf bytes.Buffer
	if err := phh.Encode(&buf, hand); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"variant = \"NT\"\n",
		"table = \"main\"\n",
		"min_bet = 10\n",
		"hand = \"hand-1\"\n",
		"[metadata]\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded hand missing %q:\n%s", want, out)
		}
	}
}

func TestRecordSurvivesEncoding(t *testing.T) {
	rec := playShowdown(t)

	data, err := phh.EncodeToBytes(phh.FromRecord(rec))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := phh.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	got, err := phh.ToRecord(decoded)
	if err != nil {
		t.Fatal(err)
	}

	if got.ID != rec.ID || got.TableID != rec.TableID || got.HandNumber != rec.HandNumber || got.Button != rec.Button {
		t.Errorf("identity = %s/%s/%d/%d", got.ID, got.TableID, got.HandNumber, got.Button)
	}
	if !got.StartedAt.Equal(rec.StartedAt) || !got.Showdown || got.Pot != rec.Pot {
		t.Errorf("started %v showdown %v pot %d", got.StartedAt, got.Showdown, got.Pot)
	}
	if got.SmallBlind != 5 || got.BigBlind != 10 || got.Mode != game.ModeBlinds {
		t.Errorf("stakes = %d/%d %s", got.SmallBlind, got.BigBlind, got.Mode)
	}
	if !slices.Equal(got.Board, rec.Board) {
		t.Errorf("board = %v, want %v", got.Board, rec.Board)
	}
	if !reflect.DeepEqual(got.Seats, rec.Seats) {
		t.Errorf("seats:\n got %+v\nwant %+v", got.Seats, rec.Seats)
	}
	if !reflect.DeepEqual(got.Actions, rec.Actions) {
		t.Errorf("actions:\n got %+v\nwant %+v", got.Actions, rec.Actions)
	}
	if len(got.Winners) != 1 || got.Winners[0].Seat != 1 || got.Winners[0].Amount != 160 {
		t.Errorf("winners = %+v", got.Winners)
	}
}

func TestToRecordRejectsBadActor(t *testing.T) {
	hand := &phh.HandHistory{
		Variant:        phh.VariantNoLimitHoldem,
		Seats:          []int{1, 2},
		StartingStacks: []int{100, 100},
		Players:        []string{"a", "b"},
		Actions:        []string{"p7 f"},
	}
	if _, err := phh.ToRecord(hand); err == nil {
		t.Fatal("expected error for unknown player")
	}
}
