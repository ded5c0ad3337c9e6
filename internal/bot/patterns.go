package bot

import (
	"sync"

	"github.com/lox/holdemtable/internal/game"
)

// Pattern is a running read on one opponent. Both scores start at 0.5.
type Pattern struct {
	Aggression float64
	Tightness  float64
	Actions    int
}

// Patterns tracks opponents across hands. It is safe for concurrent use.
type Patterns struct {
	mu   sync.Mutex
	byID map[string]*Pattern
}

func NewPatterns() *Patterns {
	return &Patterns{byID: make(map[string]*Pattern)}
}

// Observe folds one action into the opponent's pattern. Bets and raises
// raise aggression, folds lower it and tighten; calls loosen.
func (p *Patterns) Observe(id string, kind game.ActionKind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pat, ok := p.byID[id]
	if !ok {
		pat = &Pattern{Aggression: 0.5, Tightness: 0.5}
		p.byID[id] = pat
	}
	pat.Actions++

	switch kind {
	case game.Bet, game.Raise, game.AllIn:
		pat.Aggression = min(1, pat.Aggression+0.05)
		pat.Tightness = max(0, pat.Tightness-0.02)
	case game.Call:
		pat.Tightness = max(0, pat.Tightness-0.02)
	case game.Fold:
		pat.Aggression = max(0, pat.Aggression-0.02)
		pat.Tightness = min(1, pat.Tightness+0.03)
	}
}

// Get returns the pattern for id, or the neutral read when unseen.
func (p *Patterns) Get(id string) Pattern {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pat, ok := p.byID[id]; ok {
		return *pat
	}
	return Pattern{Aggression: 0.5, Tightness: 0.5}
}

// Average blends the patterns of the given opponents.
func (p *Patterns) Average(ids []string) Pattern {
	avg := Pattern{Aggression: 0.5, Tightness: 0.5}
	if len(ids) == 0 {
		return avg
	}
	avg = Pattern{}
	for _, id := range ids {
		pat := p.Get(id)
		avg.Aggression += pat.Aggression
		avg.Tightness += pat.Tightness
		avg.Actions += pat.Actions
	}
	avg.Aggression /= float64(len(ids))
	avg.Tightness /= float64(len(ids))
	return avg
}
