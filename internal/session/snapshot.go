package session

import (
	"slices"
	"time"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/poker"
)

// SeatView is one seat in a Snapshot.
type SeatView struct {
	Position  int          `json:"position"`
	Occupied  bool         `json:"occupied"`
	ID        string       `json:"id,omitempty"`
	Name      string       `json:"name,omitempty"`
	Bot       string       `json:"bot,omitempty"`
	Chips     int          `json:"chips"`
	Committed int          `json:"committed"`
	Status    game.Status  `json:"status"`
	Leaving   bool         `json:"leaving,omitempty"`
	Hole      []poker.Card `json:"hole,omitempty"`
}

// Snapshot is an immutable view of a table. Hole cards are filled in only
// for the seat it was taken for.
type Snapshot struct {
	TableID    string              `json:"table_id"`
	Stage      Stage               `json:"stage"`
	Mode       game.Mode           `json:"mode"`
	HandNumber int                 `json:"hand_number"`
	HandID     string              `json:"hand_id,omitempty"`
	Button     int                 `json:"button"`
	Street     game.Street         `json:"street"`
	Board      []poker.Card        `json:"board"`
	Pot        int                 `json:"pot"`
	Pots       []game.Pot          `json:"pots,omitempty"`
	CurrentBet int                 `json:"current_bet"`
	MinRaise   int                 `json:"min_raise"`
	Actor      int                 `json:"actor"`
	Deadline   time.Time           `json:"deadline,omitzero"`
	Legal      []game.LegalAction  `json:"legal,omitempty"`
	Seats      []SeatView          `json:"seats"`
	CanStart   bool                `json:"can_start"`
	Cards      *game.CardTracking  `json:"cards,omitempty"`
	Roster     game.Roster         `json:"-"`
}

// tableState is the published copy of the table. It is replaced, never
// mutated, so readers need no lock.
type tableState struct {
	Snapshot
	stage Stage
	board []poker.Card
	seats []SeatView
	holes [][]poker.Card
}

func (s *Session) publishState() {
	t := s.table
	st := &tableState{stage: s.stage, holes: make([][]poker.Card, len(t.Seats))}
	snap := Snapshot{
		TableID:    t.ID,
		Stage:      s.stage,
		Mode:       t.Config.Mode,
		HandNumber: t.HandNumber,
		Button:     t.Button,
		Actor:      -1,
		Board:      []poker.Card{},
		CanStart:   s.stage == StageIdle && t.CanStart(),
		Roster:     t.Roster(),
		Seats:      make([]SeatView, len(t.Seats)),
	}

	h := s.hand
	if h != nil {
		snap.HandID = h.ID
		snap.Street = h.Street
		snap.Board = slices.Clone(h.Board)
		snap.Pot = h.Pot()
		snap.Pots = h.Pots()
		snap.CurrentBet = h.CurrentBet()
		snap.MinRaise = h.MinRaise()
		snap.Actor = h.Actor
		snap.Deadline = s.deadline
	}

	for i := range t.Seats {
		seat := &t.Seats[i]
		sv := SeatView{Position: i, Chips: seat.Chips, Status: seat.Status, Leaving: s.leaving[i]}
		if occ := seat.Occupant; occ != nil {
			sv.Occupied = true
			sv.ID, sv.Name, sv.Bot = occ.ID, occ.Name, occ.Bot
		}
		if h != nil && h.InHand(i) {
			sv.Committed = h.Ledger.StreetCommitted(i)
			st.holes[i] = h.Hole(i)
		}
		snap.Seats[i] = sv
	}

	st.Snapshot = snap
	st.board = snap.Board
	st.seats = snap.Seats
	if h != nil && h.Actor >= 0 {
		st.Legal = h.LegalActions()
	}
	s.state.Store(st)
}

// Snapshot returns the table as seat sees it. Pass -1 for a spectator.
// Legal actions are included when seat is the one to act.
func (s *Session) Snapshot(seat int) Snapshot {
	st := s.state.Load()
	snap := st.Snapshot
	snap.Seats = slices.Clone(st.seats)
	snap.Board = slices.Clone(st.board)
	snap.Pots = slices.Clone(st.Pots)
	if seat != snap.Actor || seat < 0 {
		snap.Legal = nil
	} else {
		snap.Legal = slices.Clone(st.Legal)
	}
	if seat >= 0 && seat < len(st.holes) && st.holes[seat] != nil {
		hole := slices.Clone(st.holes[seat])
		snap.Seats[seat].Hole = hole
		cards := game.TrackCards(hole, snap.Board)
		snap.Cards = &cards
	}
	return snap
}

// Roster lists the occupied seats.
func (s *Session) Roster() game.Roster {
	r := s.state.Load().Roster
	r.Players = slices.Clone(r.Players)
	return r
}
