package game

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Mode selects how forced bets are collected at the start of a hand.
type Mode int

const (
	ModeBlinds Mode = iota
	ModeAnte
)

func (m Mode) String() string {
	if m == ModeAnte {
		return "ante"
	}
	return "blinds"
}

// ParseMode accepts "blinds" or "ante".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blinds":
		return ModeBlinds, nil
	case "ante":
		return ModeAnte, nil
	}
	return ModeBlinds, fmt.Errorf("unknown game mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Status is a seat's state within the current hand.
type Status int

const (
	StatusActive Status = iota
	StatusFolded
	StatusAllIn
	StatusSittingOut
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "all_in"
	case StatusSittingOut:
		return "sitting_out"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Capacities are the supported table sizes.
var Capacities = []int{2, 4, 6, 9}

// Config holds the stakes of a table.
type Config struct {
	Capacity     int
	Mode         Mode
	SmallBlind   int
	BigBlind     int
	AntePercent  float64 // fraction of InitialChips each seat antes in ante mode
	InitialChips int
}

// Validate checks the capacity and the forced-bet settings for the mode.
func (c Config) Validate() error {
	if !slices.Contains(Capacities, c.Capacity) {
		return fmt.Errorf("capacity %d not one of %v", c.Capacity, Capacities)
	}
	if c.InitialChips <= 0 {
		return fmt.Errorf("initial chips must be positive, got %d", c.InitialChips)
	}
	switch c.Mode {
	case ModeBlinds:
		if c.SmallBlind <= 0 || c.BigBlind <= 0 {
			return fmt.Errorf("blinds must be positive, got %d/%d", c.SmallBlind, c.BigBlind)
		}
		if c.SmallBlind > c.BigBlind {
			return fmt.Errorf("small blind %d exceeds big blind %d", c.SmallBlind, c.BigBlind)
		}
	case ModeAnte:
		if c.AntePercent <= 0 || c.AntePercent >= 1 {
			return fmt.Errorf("ante percent must be in (0, 1), got %v", c.AntePercent)
		}
		if c.AnteAmount() <= 0 {
			return fmt.Errorf("ante of %v on %d chips rounds to zero", c.AntePercent, c.InitialChips)
		}
	default:
		return fmt.Errorf("unknown mode %d", c.Mode)
	}
	return nil
}

// AnteAmount is the per-seat ante, round(InitialChips * AntePercent).
func (c Config) AnteAmount() int {
	if c.Mode != ModeAnte {
		return 0
	}
	return int(math.Round(float64(c.InitialChips) * c.AntePercent))
}

// MinBet is the smallest opening bet and the floor for every raise increment.
func (c Config) MinBet() int {
	if c.BigBlind > 0 {
		return c.BigBlind
	}
	return max(c.AnteAmount(), 1)
}

// Occupant is whoever sits in a seat. Bot holds the tier name for
// engine-driven seats and is empty for humans.
type Occupant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  string `json:"bot,omitempty"`
}

func (o Occupant) IsBot() bool { return o.Bot != "" }

// Seat is a fixed position at the table.
type Seat struct {
	Position int
	Occupant *Occupant
	Chips    int
	Status   Status
}

func (s *Seat) Occupied() bool { return s.Occupant != nil }

// Table is the long-lived seating and stakes state. It is owned by a single
// session goroutine and is not safe for concurrent use.
type Table struct {
	ID         string
	Config     Config
	Seats      []Seat
	Button     int
	HandNumber int
}

// NewTable creates an empty table. The button starts unplaced.
func NewTable(id string, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}
	t := &Table{ID: id, Config: cfg, Button: -1, Seats: make([]Seat, cfg.Capacity)}
	for i := range t.Seats {
		t.Seats[i] = Seat{Position: i, Status: StatusSittingOut}
	}
	return t, nil
}

func (t *Table) seat(pos int) (*Seat, error) {
	if pos < 0 || pos >= len(t.Seats) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeat, pos)
	}
	return &t.Seats[pos], nil
}

// Join seats occ at pos with chips, or the table's initial stack when
// chips is zero.
func (t *Table) Join(pos int, occ Occupant, chips int) error {
	s, err := t.seat(pos)
	if err != nil {
		return err
	}
	if s.Occupied() {
		return fmt.Errorf("%w: seat %d held by %s", ErrSeatOccupied, pos, s.Occupant.Name)
	}
	if occ.ID != "" {
		for i := range t.Seats {
			if o := t.Seats[i].Occupant; o != nil && o.ID == occ.ID {
				return fmt.Errorf("%w: %s at seat %d", ErrAlreadySeated, occ.ID, i)
			}
		}
	}
	if chips <= 0 {
		chips = t.Config.InitialChips
	}
	s.Occupant = &occ
	s.Chips = chips
	s.Status = StatusSittingOut
	return nil
}

// Leave vacates pos and returns who sat there.
func (t *Table) Leave(pos int) (Occupant, error) {
	s, err := t.seat(pos)
	if err != nil {
		return Occupant{}, err
	}
	if !s.Occupied() {
		return Occupant{}, fmt.Errorf("%w: %d", ErrSeatEmpty, pos)
	}
	occ := *s.Occupant
	s.Occupant = nil
	s.Chips = 0
	s.Status = StatusSittingOut
	return occ, nil
}

// Eligible reports, per position, whether the seat can be dealt in: it is
// occupied and has chips.
func (t *Table) Eligible() []bool {
	out := make([]bool, len(t.Seats))
	for i := range t.Seats {
		out[i] = t.Seats[i].Occupied() && t.Seats[i].Chips > 0
	}
	return out
}

// CanStart reports whether at least two seats can be dealt in.
func (t *Table) CanStart() bool {
	n := 0
	for _, ok := range t.Eligible() {
		if ok {
			n++
		}
	}
	return n >= 2
}

// TotalChips sums every seated stack.
func (t *Table) TotalChips() int {
	total := 0
	for i := range t.Seats {
		total += t.Seats[i].Chips
	}
	return total
}

// RosterEntry is one occupied seat in a roster query.
type RosterEntry struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Chips    int    `json:"chips"`
	Bot      bool   `json:"bot"`
	Tier     string `json:"tier,omitempty"`
}

// Roster is the answer to a roster query.
type Roster struct {
	Success    bool          `json:"success"`
	Players    []RosterEntry `json:"players"`
	MaxPlayers int           `json:"max_players"`
}

// Roster lists occupied seats in position order.
func (t *Table) Roster() Roster {
	r := Roster{Success: true, MaxPlayers: len(t.Seats), Players: []RosterEntry{}}
	for i := range t.Seats {
		s := &t.Seats[i]
		if !s.Occupied() {
			continue
		}
		r.Players = append(r.Players, RosterEntry{
			Position: s.Position,
			ID:       s.Occupant.ID,
			Name:     s.Occupant.Name,
			Chips:    s.Chips,
			Bot:      s.Occupant.IsBot(),
			Tier:     s.Occupant.Bot,
		})
	}
	return r
}
