package bot

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/poker"
)

// New returns a strategy for tier. Each strategy owns rng.
func New(tier Tier, rng *rand.Rand) Strategy {
	switch tier {
	case Intermediate:
		return NewIntermediate(rng, 1000)
	case Advanced:
		return NewAdvanced(rng, 2000, NewPatterns())
	}
	return NewBeginner(rng)
}

func bigBlind(v View) int {
	if v.BigBlind > 0 {
		return v.BigBlind
	}
	return max(v.Betting.MinRaise, 1)
}

func act(v View, kind game.ActionKind) game.Action {
	return game.Action{Seat: v.Seat, Kind: kind}
}

// passive checks when free, otherwise calls, and shoves when the call would
// take the whole stack.
func passive(v View, legal []game.LegalAction) game.Action {
	if v.toCall() == 0 {
		return act(v, game.Check)
	}
	if _, ok := game.Find(legal, game.Call); ok {
		return act(v, game.Call)
	}
	return act(v, game.AllIn)
}

// aggress bets size, or raises by size over the current bet, falling back
// to passive play when neither is open.
func aggress(v View, legal []game.LegalAction, size int) game.Action {
	if _, ok := game.Find(legal, game.Bet); ok {
		return game.Action{Seat: v.Seat, Kind: game.Bet, Amount: size}
	}
	if _, ok := game.Find(legal, game.Raise); ok {
		return game.Action{Seat: v.Seat, Kind: game.Raise, Amount: v.Betting.CurrentBet + size}
	}
	return passive(v, legal)
}

// equity runs a Monte Carlo estimate against the live opponents.
func equity(ctx context.Context, v View, rng *rand.Rand, sims int) float64 {
	opponents := max(len(v.Opponents), 1)
	res := poker.Equity(ctx, poker.NewHand(v.Hole...), poker.NewHand(v.Board...), opponents, sims, rng)
	return res.Equity()
}

// BeginnerBot plays mostly at random with a loose sense of hand strength.
type BeginnerBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewBeginner(rng *rand.Rand) *BeginnerBot {
	return &BeginnerBot{rng: rng}
}

// strength is the preflop chart score, or the made hand's category scaled
// to [0.1, 0.9] once there is a board.
func (b *BeginnerBot) strength(v View) float64 {
	if len(v.Board) < 3 {
		return poker.PreflopStrength(v.Hole[0], v.Hole[1])
	}
	cat := poker.Evaluate(poker.NewHand(v.Hole...) | poker.NewHand(v.Board...)).Category()
	return float64(cat+1) / 10
}

func (b *BeginnerBot) Decide(_ context.Context, v View, legal []game.LegalAction) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.strength(v)
	if v.toCall() == 0 {
		if b.rng.Float64() < 0.7 {
			return Decision{act(v, game.Check), "nothing to call, checking"}
		}
		return Decision{aggress(v, legal, v.Betting.MinRaise), "taking a stab"}
	}
	if v.Betting.Stack <= v.toCall() {
		if s > 0.6 {
			return Decision{act(v, game.AllIn), fmt.Sprintf("strength %.2f, calling it off", s)}
		}
		return Decision{act(v, game.Fold), "can't cover the bet"}
	}

	switch {
	case s < 0.3:
		return Decision{act(v, game.Fold), fmt.Sprintf("weak hand %.2f", s)}
	case s < 0.6:
		if b.rng.Float64() < 0.5 {
			return Decision{act(v, game.Call), "coin flip says call"}
		}
		return Decision{act(v, game.Fold), "coin flip says fold"}
	}
	switch r := b.rng.Float64(); {
	case r < 0.5:
		return Decision{act(v, game.Call), "good hand, calling"}
	case r < 0.7:
		return Decision{aggress(v, legal, v.Betting.MinRaise), "good hand, min raise"}
	}
	return Decision{act(v, game.Fold), "nervous fold"}
}

// IntermediateBot compares Monte Carlo equity against pot odds.
type IntermediateBot struct {
	mu   sync.Mutex
	rng  *rand.Rand
	sims int
}

func NewIntermediate(rng *rand.Rand, sims int) *IntermediateBot {
	return &IntermediateBot{rng: rng, sims: sims}
}

func (b *IntermediateBot) Decide(ctx context.Context, v View, legal []game.LegalAction) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	eq := equity(ctx, v, b.rng, b.sims)
	size := bigBlind(v) * 5 / 2

	if v.toCall() == 0 {
		if eq > 0.6 {
			return Decision{aggress(v, legal, size), fmt.Sprintf("equity %.2f, value bet", eq)}
		}
		return Decision{act(v, game.Check), fmt.Sprintf("equity %.2f, check", eq)}
	}
	if v.Betting.Stack <= v.toCall() {
		if eq > 0.4 {
			return Decision{act(v, game.AllIn), fmt.Sprintf("equity %.2f, all in", eq)}
		}
		return Decision{act(v, game.Fold), fmt.Sprintf("equity %.2f too thin to call off", eq)}
	}

	odds := v.potOdds()
	switch {
	case eq > odds+0.1 && eq > 0.7:
		return Decision{aggress(v, legal, size), fmt.Sprintf("equity %.2f vs odds %.2f, raise", eq, odds)}
	case eq > odds+0.1:
		return Decision{act(v, game.Call), fmt.Sprintf("equity %.2f vs odds %.2f, call", eq, odds)}
	}
	return Decision{act(v, game.Fold), fmt.Sprintf("equity %.2f vs odds %.2f, fold", eq, odds)}
}

// AdvancedBot adds position, opponent reads, board texture and bluffs to
// the equity calculation.
type AdvancedBot struct {
	mu       sync.Mutex
	rng      *rand.Rand
	sims     int
	patterns *Patterns
}

func NewAdvanced(rng *rand.Rand, sims int, patterns *Patterns) *AdvancedBot {
	if patterns == nil {
		patterns = NewPatterns()
	}
	return &AdvancedBot{rng: rng, sims: sims, patterns: patterns}
}

// Observe records an opponent's action.
func (b *AdvancedBot) Observe(opponentID string, kind game.ActionKind) {
	b.patterns.Observe(opponentID, kind)
}

var positionModifier = map[Position]float64{Early: -0.1, Middle: 0, Late: 0.1}

func (b *AdvancedBot) Decide(ctx context.Context, v View, legal []game.LegalAction) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	eq := equity(ctx, v, b.rng, b.sims)
	adj := eq + positionModifier[v.Position]

	read := b.patterns.Average(v.Opponents)
	if v.toCall() > 0 {
		// Maniacs bet light; rocks bet the goods.
		if read.Aggression > 0.65 {
			adj += 0.05
		}
		if read.Tightness > 0.65 {
			adj -= 0.05
		}
	}
	adj = min(max(adj, 0), 1)

	bluffChance := 0.05
	if v.Position == Late {
		bluffChance += 0.1
	}
	if read.Tightness > 0.65 {
		bluffChance += 0.05
	}
	if BoardTexture(v.Board) >= Wet {
		bluffChance /= 2
	}
	bluff := v.Street >= game.Flop && adj < 0.3 && b.rng.Float64() < bluffChance

	bb := bigBlind(v)
	why := fmt.Sprintf("equity %.2f adjusted %.2f (%s position)", eq, adj, v.Position)

	if v.toCall() == 0 {
		switch {
		case bluff:
			return Decision{aggress(v, legal, bb*3/2), why + ", bluff"}
		case adj > 0.8:
			return Decision{aggress(v, legal, 3*bb), why + ", big value bet"}
		case adj > 0.6:
			return Decision{aggress(v, legal, 2*bb), why + ", value bet"}
		}
		return Decision{act(v, game.Check), why + ", check"}
	}

	if v.Betting.Stack <= v.toCall() {
		if adj > 0.45 || bluff {
			return Decision{act(v, game.AllIn), why + ", all in"}
		}
		return Decision{act(v, game.Fold), why + ", fold short"}
	}

	if bluff {
		if b.rng.Float64() < 0.7 {
			return Decision{aggress(v, legal, bb*5/2), why + ", bluff raise"}
		}
		return Decision{act(v, game.Call), why + ", float"}
	}

	odds := v.potOdds()
	switch {
	case adj > odds+0.15 && adj > 0.8:
		return Decision{aggress(v, legal, 3*bb), why + ", raise big"}
	case adj > odds+0.15 && adj > 0.65:
		return Decision{aggress(v, legal, 2*bb), why + ", raise"}
	case adj > odds:
		return Decision{act(v, game.Call), why + ", call"}
	}
	return Decision{act(v, game.Fold), why + ", fold"}
}
