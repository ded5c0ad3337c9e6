package game

import (
	"time"

	"github.com/lox/holdemtable/poker"
)

// Event is a state change published to table observers. Each carries only
// the delta needed to follow the hand.
type Event interface {
	EventType() string
}

const (
	EventHandStarted     = "hand_started"
	EventActionRequested = "action_requested"
	EventActionApplied   = "action_applied"
	EventPotUpdated      = "pot_updated"
	EventStreetAdvanced  = "street_advanced"
	EventHandSettled     = "hand_settled"
)

// SeatState is a public view of a seat at hand start.
type SeatState struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Chips    int    `json:"chips"`
	Status   Status `json:"status"`
}

// ForcedBet is an ante or blind taken before any action.
type ForcedBet struct {
	Seat   int    `json:"seat"`
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
}

type HandStarted struct {
	HandNumber     int         `json:"hand_number"`
	HandID         string      `json:"hand_id"`
	Mode           Mode        `json:"mode"`
	Button         int         `json:"button"`
	SmallBlindSeat int         `json:"small_blind_seat"`
	BigBlindSeat   int         `json:"big_blind_seat"`
	Forced         []ForcedBet `json:"forced"`
	Seats          []SeatState `json:"seats"`
}

type ActionRequested struct {
	HandNumber int           `json:"hand_number"`
	Seat       int           `json:"seat"`
	ToCall     int           `json:"to_call"`
	Legal      []LegalAction `json:"legal"`
	Deadline   time.Time     `json:"deadline"`
}

type ActionApplied struct {
	HandNumber int        `json:"hand_number"`
	Street     Street     `json:"street"`
	Seat       int        `json:"seat"`
	Kind       ActionKind `json:"kind"`
	Amount     int        `json:"amount"`
	Paid       int        `json:"paid"`
	Stack      int        `json:"stack"`
	Timeout    bool       `json:"timeout,omitempty"`
}

type PotUpdated struct {
	HandNumber int   `json:"hand_number"`
	Total      int   `json:"total"`
	CurrentBet int   `json:"current_bet"`
	Pots       []Pot `json:"pots,omitempty"`
}

type StreetAdvanced struct {
	HandNumber int          `json:"hand_number"`
	Street     Street       `json:"street"`
	Dealt      []poker.Card `json:"dealt"`
	Board      []poker.Card `json:"board"`
}

type HandSettled struct {
	Record     HandRecord `json:"record"`
	HistoryErr string     `json:"history_error,omitempty"`
}

func (HandStarted) EventType() string     { return EventHandStarted }
func (ActionRequested) EventType() string { return EventActionRequested }
func (ActionApplied) EventType() string   { return EventActionApplied }
func (PotUpdated) EventType() string      { return EventPotUpdated }
func (StreetAdvanced) EventType() string  { return EventStreetAdvanced }
func (HandSettled) EventType() string     { return EventHandSettled }
