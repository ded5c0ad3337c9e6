package game

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalAction       = errors.New("illegal action")
	ErrInsufficientPlayers = errors.New("insufficient players")
	ErrSeatOccupied        = errors.New("seat occupied")
	ErrSeatEmpty           = errors.New("seat empty")
	ErrInvalidSeat         = errors.New("invalid seat")
	ErrAlreadySeated       = errors.New("occupant already seated")
	ErrHandInProgress      = errors.New("hand in progress")
	ErrNoHand              = errors.New("no hand in progress")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrTableClosed         = errors.New("table closed")
	ErrUnknownTable        = errors.New("unknown table")
)

// IllegalActionError reports an action outside the acting seat's legal set.
// The hand is left unchanged when it is returned. Err optionally names a
// more specific cause such as ErrNotYourTurn.
type IllegalActionError struct {
	Action Action
	Reason string
	Err    error
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s by seat %d: %s", e.Action.Kind, e.Action.Seat, e.Reason)
}

func (e *IllegalActionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrIllegalAction, e.Err}
	}
	return []error{ErrIllegalAction}
}

func illegal(a Action, format string, args ...any) error {
	return &IllegalActionError{Action: a, Reason: fmt.Sprintf(format, args...)}
}
