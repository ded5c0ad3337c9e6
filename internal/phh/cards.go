package phh

import (
	"fmt"
	"strings"

	"github.com/lox/holdemtable/poker"
)

// unknownCard marks a card that was dealt but never shown.
const unknownCard = "??"

// FormatCards joins cards without separators ("AhKh"). Missing cards are
// written as "??".
func FormatCards(cards []poker.Card, want int) string {
	var b strings.Builder
	for i := range max(want, len(cards)) {
		if i < len(cards) {
			b.WriteString(cards[i].String())
		} else {
			b.WriteString(unknownCard)
		}
	}
	return b.String()
}

// ParseCards splits a run of two-character cards. A run made only of "??"
// yields nil.
func ParseCards(s string) ([]poker.Card, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("phh: odd card string %q", s)
	}
	var cards []poker.Card
	for i := 0; i < len(s); i += 2 {
		chunk := s[i : i+2]
		if chunk == unknownCard {
			continue
		}
		c, err := poker.ParseCard(chunk)
		if err != nil {
			return nil, fmt.Errorf("phh: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}
