// Package phh converts settled hands to and from the Poker Hand History
// text format (https://phh.readthedocs.io).
package phh

import "time"

// HandHistory is a single hand in PHH form. Players are listed in dealing
// order, so p1 is the first seat left of the button.
type HandHistory struct {
	Variant           string         `toml:"variant"`
	Table             string         `toml:"table,omitempty"`
	SeatCount         int            `toml:"seat_count,omitempty"`
	Seats             []int          `toml:"seats,omitempty"`
	Antes             []int          `toml:"antes"`
	BlindsOrStraddles []int          `toml:"blinds_or_straddles"`
	MinBet            int            `toml:"min_bet"`
	StartingStacks    []int          `toml:"starting_stacks"`
	FinishingStacks   []int          `toml:"finishing_stacks,omitempty"`
	Winnings          []int          `toml:"winnings,omitempty"`
	Actions           []string       `toml:"actions"`
	Players           []string       `toml:"players,omitempty"`
	HandID            string         `toml:"hand"`
	Time              string         `toml:"time,omitempty"`
	TimeZone          string         `toml:"time_zone,omitempty"`
	Day               int            `toml:"day,omitempty"`
	Month             int            `toml:"month,omitempty"`
	Year              int            `toml:"year,omitempty"`
	Metadata          map[string]any `toml:"metadata,omitempty"`

	Timestamp time.Time `toml:"-"`
}

// Variant for no-limit Texas hold'em.
const VariantNoLimitHoldem = "NT"

// Metadata keys written by FromRecord and read back by ToRecord.
const (
	MetaHandNumber = "hand_number"
	MetaButton     = "button"
	MetaShowdown   = "showdown"
	MetaStartedAt  = "started_at"
	MetaEndedAt    = "ended_at"
	MetaMode       = "mode"
	MetaPlayerIDs  = "player_ids"
	MetaBots       = "bots"
)
