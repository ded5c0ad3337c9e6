package game

import (
	"fmt"
	rand "math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/lox/holdemtable/poker"
)

// HandOption configures a hand during StartHand.
type HandOption func(*handConfig)

type handConfig struct {
	rng  *rand.Rand
	deck *poker.Deck
	id   string
	now  func() time.Time
}

// WithRNG shuffles the deck with rng.
func WithRNG(rng *rand.Rand) HandOption {
	return func(c *handConfig) { c.rng = rng }
}

// WithDeck deals from a prepared deck instead of a fresh shuffle.
func WithDeck(deck *poker.Deck) HandOption {
	return func(c *handConfig) { c.deck = deck }
}

// WithHandID overrides the generated hand id.
func WithHandID(id string) HandOption {
	return func(c *handConfig) { c.id = id }
}

// WithClock sets the time source used for the record timestamps.
func WithClock(now func() time.Time) HandOption {
	return func(c *handConfig) { c.now = now }
}

// Hand is the state machine for a single hand at a table. It mutates the
// table's seats as chips move. Like Table it belongs to one goroutine.
type Hand struct {
	ID             string
	Number         int
	Button         int
	SmallBlindSeat int
	BigBlindSeat   int
	Street         Street
	Board          []poker.Card
	Ledger         *Ledger
	Actor          int

	table     *Table
	deck      *poker.Deck
	now       func() time.Time
	startedAt time.Time

	inHand []bool
	holes  [][]poker.Card
	start  []int

	currentBet int
	minRaise   int
	acted      []bool
	raiseOpen  []bool

	forced  []ForcedBet
	actions []ActionRecord
	events  []Event
	record  *HandRecord
}

// StartHand moves the button, collects antes or blinds, deals two hole cards
// to every seat with chips and puts action on the first seat to act.
func StartHand(t *Table, opts ...HandOption) (*Hand, error) {
	cfg := handConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	eligible := t.Eligible()
	button, err := AdvanceButton(eligible, t.Button)
	if err != nil {
		return nil, err
	}

	deck := cfg.deck
	if deck == nil {
		if cfg.rng == nil {
			return nil, fmt.Errorf("hand needs a deck or an rng")
		}
		deck = poker.NewDeck(cfg.rng)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	n := len(t.Seats)
	t.Button = button
	t.HandNumber++

	h := &Hand{
		ID:             cfg.id,
		Number:         t.HandNumber,
		Button:         button,
		SmallBlindSeat: -1,
		BigBlindSeat:   -1,
		Street:         Preflop,
		Ledger:         NewLedger(n),
		Actor:          -1,
		table:          t,
		deck:           deck,
		now:            cfg.now,
		startedAt:      cfg.now(),
		inHand:         eligible,
		holes:          make([][]poker.Card, n),
		start:          make([]int, n),
		acted:          make([]bool, n),
		raiseOpen:      make([]bool, n),
		minRaise:       t.Config.MinBet(),
	}

	for i := range t.Seats {
		s := &t.Seats[i]
		h.start[i] = s.Chips
		s.Status = StatusSittingOut
		if eligible[i] {
			s.Status = StatusActive
		}
		h.raiseOpen[i] = true
	}

	order := h.dealOrder()
	from := button
	switch t.Config.Mode {
	case ModeAnte:
		ante := t.Config.AnteAmount()
		for _, pos := range order {
			paid := h.Ledger.CollectAnte(&t.Seats[pos], ante)
			h.forcedBet(pos, KindAnte, paid)
		}
	default:
		h.SmallBlindSeat, h.BigBlindSeat = BlindSeats(eligible, button)
		paid := h.Ledger.CollectBlind(&t.Seats[h.SmallBlindSeat], t.Config.SmallBlind)
		h.forcedBet(h.SmallBlindSeat, KindSmallBlind, paid)
		paid = h.Ledger.CollectBlind(&t.Seats[h.BigBlindSeat], t.Config.BigBlind)
		h.forcedBet(h.BigBlindSeat, KindBigBlind, paid)
		h.currentBet = t.Config.BigBlind
		from = h.BigBlindSeat
	}

	for range 2 {
		for _, pos := range order {
			h.holes[pos] = append(h.holes[pos], deck.DealOne())
		}
	}

	seats := make([]SeatState, 0, len(order))
	for i := range t.Seats {
		s := &t.Seats[i]
		if s.Occupied() {
			seats = append(seats, SeatState{Position: i, Name: s.Occupant.Name, Chips: s.Chips, Status: s.Status})
		}
	}
	h.emit(HandStarted{
		HandNumber:     h.Number,
		HandID:         h.ID,
		Mode:           t.Config.Mode,
		Button:         button,
		SmallBlindSeat: h.SmallBlindSeat,
		BigBlindSeat:   h.BigBlindSeat,
		Forced:         slices.Clone(h.forced),
		Seats:          seats,
	})
	h.emitPot()
	h.progress(from)
	return h, nil
}

func (h *Hand) forcedBet(pos int, kind string, paid int) {
	h.forced = append(h.forced, ForcedBet{Seat: pos, Kind: kind, Amount: paid})
	h.actions = append(h.actions, ActionRecord{
		Street: Preflop,
		Seat:   pos,
		Kind:   kind,
		Amount: h.Ledger.StreetCommitted(pos),
		Paid:   paid,
	})
}

// dealOrder lists the dealt-in seats starting left of the button.
func (h *Hand) dealOrder() []int {
	var order []int
	for _, pos := range ClockwiseFrom(len(h.inHand), h.Button) {
		if h.inHand[pos] {
			order = append(order, pos)
		}
	}
	return order
}

func (h *Hand) seat(pos int) *Seat { return &h.table.Seats[pos] }

func (h *Hand) live(pos int) bool {
	return h.inHand[pos] && h.seat(pos).Status == StatusActive
}

func (h *Hand) liveCount() int {
	n := 0
	for pos := range h.inHand {
		if h.live(pos) {
			n++
		}
	}
	return n
}

// Contenders counts dealt-in seats that have not folded.
func (h *Hand) Contenders() int {
	n := 0
	for pos := range h.inHand {
		if h.inHand[pos] && h.seat(pos).Status != StatusFolded {
			n++
		}
	}
	return n
}

func (h *Hand) needsAction(pos int) bool {
	if !h.live(pos) {
		return false
	}
	matched := h.Ledger.StreetCommitted(pos) >= h.currentBet
	if h.liveCount() == 1 && matched {
		return false
	}
	return !h.acted[pos] || !matched
}

// nextToAct finds the first seat strictly clockwise of from that still owes
// an action on this street.
func (h *Hand) nextToAct(from int) int {
	n := len(h.inHand)
	for i := 1; i <= n; i++ {
		pos := ((from+i)%n + n) % n
		if h.needsAction(pos) {
			return pos
		}
	}
	return -1
}

// progress moves action on after a change, dealing streets and settling the
// hand as needed.
func (h *Hand) progress(from int) {
	if h.Contenders() <= 1 {
		h.finish(false)
		return
	}
	for {
		if next := h.nextToAct(from); next >= 0 {
			h.Actor = next
			return
		}
		if h.Street == River {
			h.finish(true)
			return
		}
		h.nextStreet()
		from = h.Button
	}
}

func (h *Hand) nextStreet() {
	h.Street++
	n := 1
	if h.Street == Flop {
		n = 3
	}
	dealt := h.deck.Deal(n)
	h.Board = append(h.Board, dealt...)

	h.Ledger.ResetStreet()
	h.currentBet = 0
	h.minRaise = h.table.Config.MinBet()
	clear(h.acted)
	for i := range h.raiseOpen {
		h.raiseOpen[i] = true
	}
	h.emit(StreetAdvanced{
		HandNumber: h.Number,
		Street:     h.Street,
		Dealt:      dealt,
		Board:      slices.Clone(h.Board),
	})
}

// Complete reports whether the hand has been settled.
func (h *Hand) Complete() bool { return h.record != nil }

// CurrentBet is the amount to match on this street.
func (h *Hand) CurrentBet() int { return h.currentBet }

// MinRaise is the smallest legal raise increment.
func (h *Hand) MinRaise() int { return h.minRaise }

// Pot is every chip collected so far.
func (h *Hand) Pot() int { return h.Ledger.Total() }

// Hole returns the hole cards dealt to pos.
func (h *Hand) Hole(pos int) []poker.Card {
	if pos < 0 || pos >= len(h.holes) {
		return nil
	}
	return slices.Clone(h.holes[pos])
}

// InHand reports whether pos was dealt into this hand.
func (h *Hand) InHand(pos int) bool {
	return pos >= 0 && pos < len(h.inHand) && h.inHand[pos]
}

// Order lists dealt-in seats clockwise from the seat left of the button.
func (h *Hand) Order() []int { return h.dealOrder() }

// Actions returns the action log so far.
func (h *Hand) Actions() []ActionRecord { return slices.Clone(h.actions) }

// BettingView describes the betting situation for pos.
func (h *Hand) BettingView(pos int) BettingView {
	return BettingView{
		Stack:      h.seat(pos).Chips,
		Committed:  h.Ledger.StreetCommitted(pos),
		CurrentBet: h.currentBet,
		MinRaise:   h.minRaise,
		CanRaise:   h.raiseOpen[pos] && h.liveCount() > 1,
	}
}

// LegalActions returns the choices open to the acting seat.
func (h *Hand) LegalActions() []LegalAction {
	if h.Complete() || h.Actor < 0 {
		return nil
	}
	return LegalActions(h.BettingView(h.Actor))
}

// DefaultAction is what a seat does when its clock runs out: fold facing a
// bet, otherwise check.
func (h *Hand) DefaultAction(pos int) Action {
	if h.BettingView(pos).ToCall() > 0 {
		return Action{Seat: pos, Kind: Fold}
	}
	return Action{Seat: pos, Kind: Check}
}

// ProcessAction applies an action from the acting seat. On error the hand is
// unchanged.
func (h *Hand) ProcessAction(a Action) error {
	_, err := h.apply(a, false)
	return err
}

// ApplyTimeout applies the default action for the acting seat and flags it
// as a timeout.
func (h *Hand) ApplyTimeout() (Action, error) {
	if h.Complete() || h.Actor < 0 {
		return Action{}, ErrNoHand
	}
	return h.apply(h.DefaultAction(h.Actor), true)
}

func (h *Hand) apply(a Action, timeout bool) (Action, error) {
	if h.Complete() {
		return a, fmt.Errorf("hand %d: %w", h.Number, ErrNoHand)
	}
	if a.Seat != h.Actor {
		return a, &IllegalActionError{
			Action: a,
			Reason: fmt.Sprintf("seat %d is acting", h.Actor),
			Err:    ErrNotYourTurn,
		}
	}
	a, err := Normalize(h.BettingView(a.Seat), a)
	if err != nil {
		return a, err
	}

	s := h.seat(a.Seat)
	before := h.Ledger.StreetCommitted(a.Seat)
	paid := 0
	switch a.Kind {
	case Fold:
		s.Status = StatusFolded
	case Check:
	default:
		paid = h.Ledger.Commit(s, a.Amount-before)
	}
	after := before + paid
	a.Amount = after

	if after > h.currentBet {
		increment := after - h.currentBet
		if increment >= h.minRaise {
			h.minRaise = increment
			for i := range h.raiseOpen {
				h.raiseOpen[i] = true
			}
		} else {
			// An incomplete all-in raise: whoever already acted may
			// only call or fold.
			for i := range h.raiseOpen {
				if h.acted[i] {
					h.raiseOpen[i] = false
				}
			}
		}
		h.currentBet = after
		clear(h.acted)
	}
	h.acted[a.Seat] = true

	h.actions = append(h.actions, ActionRecord{
		Street:  h.Street,
		Seat:    a.Seat,
		Kind:    a.Kind.String(),
		Amount:  after,
		Paid:    paid,
		Timeout: timeout,
	})
	h.emit(ActionApplied{
		HandNumber: h.Number,
		Street:     h.Street,
		Seat:       a.Seat,
		Kind:       a.Kind,
		Amount:     after,
		Paid:       paid,
		Stack:      s.Chips,
		Timeout:    timeout,
	})
	if paid > 0 {
		h.emitPot()
	}
	h.progress(a.Seat)
	return a, nil
}

// Forfeit folds pos out of turn, used when an occupant leaves mid-hand. An
// all-in seat stays in contention.
func (h *Hand) Forfeit(pos int) bool {
	if h.Complete() || !h.live(pos) {
		return false
	}
	if pos == h.Actor {
		_, err := h.apply(Action{Seat: pos, Kind: Fold}, false)
		return err == nil
	}
	h.seat(pos).Status = StatusFolded
	h.actions = append(h.actions, ActionRecord{
		Street: h.Street,
		Seat:   pos,
		Kind:   Fold.String(),
		Amount: h.Ledger.StreetCommitted(pos),
	})
	h.emit(ActionApplied{
		HandNumber: h.Number,
		Street:     h.Street,
		Seat:       pos,
		Kind:       Fold,
		Amount:     h.Ledger.StreetCommitted(pos),
		Stack:      h.seat(pos).Chips,
	})
	h.progress(h.Actor - 1)
	return true
}

func (h *Hand) folded() []bool {
	out := make([]bool, len(h.inHand))
	for pos := range out {
		out[pos] = !h.inHand[pos] || h.seat(pos).Status == StatusFolded
	}
	return out
}

// Pots returns the current main and side pots.
func (h *Hand) Pots() []Pot { return h.Ledger.BuildPots(h.folded()) }

func (h *Hand) finish(showdown bool) {
	h.Actor = -1
	folded := h.folded()
	pots := h.Ledger.BuildPots(folded)

	values := make(map[int]poker.HandValue)
	if showdown {
		h.Street = Showdown
		board := poker.NewHand(h.Board...)
		for pos := range h.inHand {
			if !folded[pos] {
				values[pos] = poker.Evaluate(board | poker.NewHand(h.holes[pos]...))
			}
		}
	}
	payouts := Distribute(pots, values, ClockwiseFrom(len(h.inHand), h.Button))
	for pos, amount := range payouts {
		h.seat(pos).Chips += amount
	}

	cfg := h.table.Config
	rec := HandRecord{
		ID:         h.ID,
		TableID:    h.table.ID,
		HandNumber: h.Number,
		StartedAt:  h.startedAt,
		EndedAt:    h.now(),
		Mode:       cfg.Mode,
		Button:     h.Button,
		Board:      slices.Clone(h.Board),
		Pot:        h.Ledger.Total(),
		Pots:       pots,
		Showdown:   showdown,
		Actions:    slices.Clone(h.actions),
		Winners:    []Winner{},
	}
	if cfg.Mode == ModeAnte {
		rec.Ante = cfg.AnteAmount()
	} else {
		rec.SmallBlind, rec.BigBlind = cfg.SmallBlind, cfg.BigBlind
	}
	if rec.Board == nil {
		rec.Board = []poker.Card{}
	}

	for _, pos := range h.dealOrder() {
		s := h.seat(pos)
		res := SeatResult{
			Seat:   pos,
			Start:  h.start[pos],
			End:    s.Chips,
			Delta:  s.Chips - h.start[pos],
			Folded: folded[pos],
		}
		if s.Occupant != nil {
			res.ID, res.Name, res.Bot = s.Occupant.ID, s.Occupant.Name, s.Occupant.Bot
		}
		if showdown && !folded[pos] {
			res.Hole = slices.Clone(h.holes[pos])
		}
		rec.Seats = append(rec.Seats, res)

		amount := payouts[pos]
		if amount == 0 {
			continue
		}
		w := Winner{Seat: pos, Name: res.Name, Amount: amount}
		if v, ok := values[pos]; ok {
			w.Hand = v.String()
			w.Cards = poker.BestFive(poker.NewHand(h.Board...) | poker.NewHand(h.holes[pos]...))
		}
		rec.Winners = append(rec.Winners, w)
	}
	h.record = &rec
}

// Record returns the settled hand's history, or false while it is running.
func (h *Hand) Record() (HandRecord, bool) {
	if h.record == nil {
		return HandRecord{}, false
	}
	return *h.record, true
}

func (h *Hand) emit(e Event) { h.events = append(h.events, e) }

func (h *Hand) emitPot() {
	h.emit(PotUpdated{
		HandNumber: h.Number,
		Total:      h.Ledger.Total(),
		CurrentBet: h.currentBet,
		Pots:       h.Ledger.BuildPots(h.folded()),
	})
}

// DrainEvents returns and clears the events produced since the last call.
func (h *Hand) DrainEvents() []Event {
	out := h.events
	h.events = nil
	return out
}
