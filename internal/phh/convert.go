package phh

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/poker"
)

// boardSlices gives the board cards dealt on each street.
var boardSlices = map[game.Street][2]int{
	game.Flop:  {0, 3},
	game.Turn:  {3, 4},
	game.River: {4, 5},
}

// FromRecord converts a settled hand to PHH. Hole cards that were never
// shown are written as "????".
func FromRecord(rec game.HandRecord) *HandHistory {
	n := len(rec.Seats)
	h := &HandHistory{
		Variant:           VariantNoLimitHoldem,
		Table:             rec.TableID,
		SeatCount:         n,
		Seats:             make([]int, n),
		Antes:             make([]int, n),
		BlindsOrStraddles: make([]int, n),
		MinBet:            rec.BigBlind,
		StartingStacks:    make([]int, n),
		FinishingStacks:   make([]int, n),
		Winnings:          make([]int, n),
		Actions:           make([]string, 0, n+len(rec.Actions)+8),
		Players:           make([]string, n),
		HandID:            rec.ID,
		Timestamp:         rec.StartedAt,
	}
	if h.MinBet == 0 {
		h.MinBet = max(rec.Ante, 1)
	}
	populateTimeFields(h)

	ids := make([]string, n)
	bots := make([]string, n)
	idx := make(map[int]int, n)
	for i, s := range rec.Seats {
		idx[s.Seat] = i
		h.Seats[i] = s.Seat + 1
		h.StartingStacks[i] = s.Start
		h.FinishingStacks[i] = s.End
		h.Players[i] = s.Name
		ids[i] = s.ID
		bots[i] = s.Bot
		h.Actions = append(h.Actions, fmt.Sprintf("d dh p%d %s", i+1, FormatCards(s.Hole, 2)))
	}
	for _, w := range rec.Winners {
		if i, ok := idx[w.Seat]; ok {
			h.Winnings[i] += w.Amount
		}
	}

	street := game.Preflop
	high := rec.BigBlind
	dealTo := func(target game.Street) {
		for street < target && street < game.River {
			street++
			high = 0
			span := boardSlices[street]
			if len(rec.Board) >= span[1] {
				h.Actions = append(h.Actions, "d db "+FormatCards(rec.Board[span[0]:span[1]], 0))
			}
		}
	}

	for _, a := range rec.Actions {
		i, ok := idx[a.Seat]
		if !ok {
			continue
		}
		switch a.Kind {
		case game.KindAnte:
			h.Antes[i] += a.Paid
		case game.KindSmallBlind, game.KindBigBlind:
			h.BlindsOrStraddles[i] += a.Paid
		}
		dealTo(a.Street)
		if line, ok := FormatAction(i, a, high); ok {
			h.Actions = append(h.Actions, line)
		}
		high = max(high, a.Amount)
	}

	if rec.Showdown {
		dealTo(game.River)
		for i, s := range rec.Seats {
			if len(s.Hole) > 0 {
				h.Actions = append(h.Actions, fmt.Sprintf("p%d sm %s", i+1, FormatCards(s.Hole, 2)))
			}
		}
	}

	h.Metadata = map[string]any{
		MetaHandNumber: rec.HandNumber,
		MetaButton:     rec.Button,
		MetaShowdown:   rec.Showdown,
		MetaMode:       rec.Mode.String(),
		MetaStartedAt:  rec.StartedAt.UTC().Format(time.RFC3339Nano),
		MetaEndedAt:    rec.EndedAt.UTC().Format(time.RFC3339Nano),
		MetaPlayerIDs:  ids,
		MetaBots:       bots,
	}
	return h
}

func populateTimeFields(h *HandHistory) {
	if h.Timestamp.IsZero() {
		return
	}
	ts := h.Timestamp.UTC()
	h.Time = ts.Format("15:04:05")
	h.TimeZone = "UTC"
	h.Day = ts.Day()
	h.Month = int(ts.Month())
	h.Year = ts.Year()
}

// ToRecord rebuilds a hand record from PHH written by FromRecord. Pot
// breakdown and winning hand descriptions are not carried by the format
// and are left empty.
func ToRecord(h *HandHistory) (game.HandRecord, error) {
	n := len(h.Players)
	if len(h.StartingStacks) != n || len(h.Seats) != n {
		return game.HandRecord{}, fmt.Errorf("phh: hand %s has %d players but %d stacks and %d seats",
			h.HandID, n, len(h.StartingStacks), len(h.Seats))
	}

	rec := game.HandRecord{
		ID:       h.HandID,
		TableID:  h.Table,
		Board:    []poker.Card{},
		Winners:  []game.Winner{},
		Seats:    make([]game.SeatResult, n),
		Showdown: metaBool(h.Metadata, MetaShowdown),
	}
	rec.HandNumber = metaInt(h.Metadata, MetaHandNumber)
	rec.Button = metaInt(h.Metadata, MetaButton)
	if mode, err := game.ParseMode(metaString(h.Metadata, MetaMode)); err == nil {
		rec.Mode = mode
	}
	rec.StartedAt = metaTime(h.Metadata, MetaStartedAt)
	rec.EndedAt = metaTime(h.Metadata, MetaEndedAt)
	ids := metaStrings(h.Metadata, MetaPlayerIDs)
	bots := metaStrings(h.Metadata, MetaBots)

	stacks := make([]int, n)
	committed := make([]int, n)
	for i := range n {
		s := &rec.Seats[i]
		s.Seat = h.Seats[i] - 1
		s.Name = h.Players[i]
		s.Start = h.StartingStacks[i]
		s.End = s.Start
		if i < len(h.FinishingStacks) {
			s.End = h.FinishingStacks[i]
		}
		s.Delta = s.End - s.Start
		if i < len(ids) {
			s.ID = ids[i]
		}
		if i < len(bots) {
			s.Bot = bots[i]
		}
		stacks[i] = s.Start
	}

	high := 0
	for i := range n {
		if i < len(h.Antes) && h.Antes[i] > 0 {
			rec.Ante = max(rec.Ante, h.Antes[i])
			stacks[i] -= h.Antes[i]
			rec.Pot += h.Antes[i]
			rec.Actions = append(rec.Actions, game.ActionRecord{Seat: rec.Seats[i].Seat, Kind: game.KindAnte, Paid: h.Antes[i]})
		}
	}
	posted := blindOrder(h.BlindsOrStraddles)
	for k, i := range posted {
		paid := h.BlindsOrStraddles[i]
		kind := game.KindBigBlind
		if k == 0 && len(posted) == 2 {
			kind = game.KindSmallBlind
		}
		if kind == game.KindSmallBlind {
			rec.SmallBlind = paid
		} else {
			rec.BigBlind = paid
		}
		stacks[i] -= paid
		committed[i] = paid
		rec.Pot += paid
		high = max(high, paid)
		rec.Actions = append(rec.Actions, game.ActionRecord{Seat: rec.Seats[i].Seat, Kind: kind, Amount: paid, Paid: paid})
	}
	if len(posted) > 0 {
		rec.BigBlind = max(rec.BigBlind, h.MinBet)
		high = rec.BigBlind
	}

	street := game.Preflop
	for _, line := range h.Actions {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(line, "#") {
			continue
		}
		if fields[0] == "d" {
			if fields[1] != "db" || len(fields) < 3 {
				continue
			}
			cards, err := ParseCards(fields[2])
			if err != nil {
				return rec, err
			}
			rec.Board = append(rec.Board, cards...)
			street++
			high = 0
			clear(committed)
			continue
		}

		i, err := playerIndex(fields[0], n)
		if err != nil {
			return rec, err
		}
		seat := rec.Seats[i].Seat
		a := game.ActionRecord{Street: street, Seat: seat}
		switch fields[1] {
		case "f":
			a.Kind = game.Fold.String()
			a.Amount = committed[i]
			rec.Seats[i].Folded = true
		case "cc":
			target := min(high, committed[i]+stacks[i])
			a.Paid = target - committed[i]
			a.Amount = target
			switch {
			case a.Paid == 0:
				a.Kind = game.Check.String()
			case a.Paid == stacks[i]:
				a.Kind = game.AllIn.String()
			default:
				a.Kind = game.Call.String()
			}
		case "cbr":
			if len(fields) < 3 {
				return rec, fmt.Errorf("phh: missing amount in %q", line)
			}
			amount, err := strconv.Atoi(fields[2])
			if err != nil {
				return rec, fmt.Errorf("phh: bad amount in %q: %w", line, err)
			}
			a.Amount = amount
			a.Paid = amount - committed[i]
			switch {
			case a.Paid == stacks[i]:
				a.Kind = game.AllIn.String()
			case high == 0:
				a.Kind = game.Bet.String()
			default:
				a.Kind = game.Raise.String()
			}
			high = max(high, amount)
		case "sm":
			if len(fields) < 3 {
				continue
			}
			cards, err := ParseCards(fields[2])
			if err != nil {
				return rec, err
			}
			rec.Seats[i].Hole = cards
			continue
		default:
			continue
		}
		stacks[i] -= a.Paid
		committed[i] = a.Amount
		rec.Pot += a.Paid
		rec.Actions = append(rec.Actions, a)
	}
	for i, won := range h.Winnings {
		if won > 0 && i < n {
			rec.Winners = append(rec.Winners, game.Winner{Seat: rec.Seats[i].Seat, Name: rec.Seats[i].Name, Amount: won})
		}
	}
	return rec, nil
}

func playerIndex(token string, n int) (int, error) {
	if !strings.HasPrefix(token, "p") {
		return 0, fmt.Errorf("phh: unexpected actor %q", token)
	}
	i, err := strconv.Atoi(token[1:])
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("phh: unexpected actor %q", token)
	}
	return i - 1, nil
}

// blindOrder returns the indexes of players who posted, smallest blind
// first.
func blindOrder(blinds []int) []int {
	var out []int
	for i, b := range blinds {
		if b > 0 {
			out = append(out, i)
		}
	}
	if len(out) == 2 && blinds[out[0]] > blinds[out[1]] {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

func metaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func metaBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func metaString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func metaTime(m map[string]any, key string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, metaString(m, key))
	if err != nil {
		return time.Time{}
	}
	return t
}

func metaStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, s := range v {
			out[i], _ = s.(string)
		}
		return out
	}
	return nil
}
