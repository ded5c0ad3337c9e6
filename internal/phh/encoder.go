package phh

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/lox/holdemtable/internal/game"
)

// Encode writes the hand history to w in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(hand *HandHistory) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, hand); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses one hand from PHH TOML.
func Decode(data []byte) (*HandHistory, error) {
	var hand HandHistory
	if _, err := toml.Decode(string(data), &hand); err != nil {
		return nil, fmt.Errorf("phh: decode: %w", err)
	}
	return &hand, nil
}

// FormatAction renders one action-log entry for player index idx (0-based).
// high is the largest street total before the action. Forced bets return
// false: they are carried by the antes and blinds_or_straddles fields.
func FormatAction(idx int, rec game.ActionRecord, high int) (string, bool) {
	player := fmt.Sprintf("p%d", idx+1)
	switch rec.Kind {
	case game.KindAnte, game.KindSmallBlind, game.KindBigBlind:
		return "", false
	}
	kind, err := game.ParseActionKind(rec.Kind)
	if err != nil {
		return fmt.Sprintf("# %s %s %d", player, rec.Kind, rec.Amount), true
	}
	switch kind {
	case game.Fold:
		return player + " f", true
	case game.Check, game.Call:
		return player + " cc", true
	case game.AllIn:
		if rec.Amount <= high {
			return player + " cc", true
		}
	}
	return fmt.Sprintf("%s cbr %d", player, rec.Amount), true
}
