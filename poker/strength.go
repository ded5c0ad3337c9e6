package poker

// HoleCategory is a coarse preflop bucket for two hole cards.
type HoleCategory string

const (
	CategoryPremium HoleCategory = "premium"
	CategoryStrong  HoleCategory = "strong"
	CategoryMedium  HoleCategory = "medium"
	CategoryWeak    HoleCategory = "weak"
	CategoryTrash   HoleCategory = "trash"
)

// PreflopStrength scores two hole cards on [0, 0.95]. Pairs scale with rank;
// unpaired hands earn points for high cards, connectedness, suitedness and
// the big-ace combinations.
func PreflopStrength(a, b Card) float64 {
	r1, r2 := int(a.Rank())+2, int(b.Rank())+2
	if r1 == r2 {
		switch {
		case r1 >= 10:
			return 0.8 + float64(r1-10)*0.04
		case r1 >= 7:
			return 0.6 + float64(r1-7)*0.05
		default:
			return 0.3 + float64(r1-2)*0.05
		}
	}

	high, low := max(r1, r2), min(r1, r2)
	var s float64
	switch {
	case high == 14:
		s += 0.3
	case high >= 12:
		s += 0.2
	case high >= 10:
		s += 0.1
	}
	switch high - low {
	case 1:
		s += 0.15
	case 2:
		s += 0.1
	case 3:
		s += 0.05
	}
	if a.Suit() == b.Suit() {
		s += 0.1
	}
	if high == 14 && low >= 11 {
		s += 0.2
	}
	return min(0.95, s)
}

// CategorizeHoleCards buckets a starting hand: premium (JJ+, AK), strong
// (TT, AQ, AJ), medium (77-99, suited broadway), weak (small pairs, suited
// connectors) and trash.
func CategorizeHoleCards(a, b Card) HoleCategory {
	r1, r2 := int(a.Rank())+2, int(b.Rank())+2
	small, big := min(r1, r2), max(r1, r2)
	suited := a.Suit() == b.Suit()
	pair := small == big

	switch {
	case pair && small >= 11, small == 13 && big == 14:
		return CategoryPremium
	case pair && small == 10, big == 14 && small >= 11:
		return CategoryStrong
	case pair && small >= 7, suited && small >= 10:
		return CategoryMedium
	case pair, suited && big-small <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}
