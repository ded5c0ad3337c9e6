package session

import (
	"time"

	"github.com/lox/holdemtable/internal/bot"
	"github.com/lox/holdemtable/internal/game"
)

// requestAction opens a turn for the hand's actor: it arms the deadline,
// announces the request and, for a bot seat, starts the bot thinking.
// Anything that arrives for an older turn is ignored.
func (s *Session) requestAction() {
	h := s.hand
	seat := h.Actor
	s.stopTurnTimer()
	s.turn++
	turn := s.turn
	s.awaiting = seat
	s.deadline = s.clock.Now().Add(s.cfg.ActionTimeout)

	s.turnTimer = s.clock.AfterFunc(s.cfg.ActionTimeout, func() {
		s.post(func() { s.expire(turn) })
	}, "turn")

	view := h.BettingView(seat)
	s.emit(game.ActionRequested{
		HandNumber: h.Number,
		Seat:       seat,
		ToCall:     view.ToCall(),
		Legal:      h.LegalActions(),
		Deadline:   s.deadline,
	})

	if strategy, ok := s.bots[seat]; ok {
		s.think(turn, strategy, bot.ViewFor(s.table, h, seat), h.LegalActions())
	}
}

// endTurn closes the current turn so its timer and any late bot answer are
// dropped.
func (s *Session) endTurn() {
	s.stopTurnTimer()
	s.turn++
	s.awaiting = -1
	s.deadline = time.Time{}
}

func (s *Session) stopTurnTimer() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
}

// expire applies the default action when the deadline passes.
func (s *Session) expire(turn uint64) {
	if turn != s.turn || s.hand == nil {
		return
	}
	s.applyDefault("action timeout")
}

func (s *Session) applyDefault(reason string) {
	seat := s.hand.Actor
	s.endTurn()
	a, err := s.hand.ApplyTimeout()
	if err != nil {
		s.logger.Error().Err(err).Int("seat", seat).Msg("failed to apply default action")
		return
	}
	s.logger.Warn().
		Int("hand", s.hand.Number).
		Int("seat", seat).
		Str("action", a.Kind.String()).
		Str("reason", reason).
		Msg("default action applied")
	s.afterChange()
}

// think runs a bot decision off the Run goroutine. The pause before
// answering comes out of the bot's budget.
func (s *Session) think(turn uint64, strategy bot.Strategy, view bot.View, legal []game.LegalAction) {
	pause := s.cfg.BotThinkMin
	if spread := s.cfg.BotThinkMax - s.cfg.BotThinkMin; spread > 0 {
		pause += time.Duration(s.rng.Int64N(int64(spread)))
	}
	pause = min(pause, s.cfg.BotBudget/2)
	budget := s.cfg.BotBudget - pause
	ctx := s.ctx

	go func() {
		if pause > 0 {
			t := s.clock.NewTimer(pause, "think")
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return
			}
		}
		d, ok := bot.Decide(ctx, strategy, view, legal, budget)
		s.post(func() { s.botAnswered(turn, d, ok) })
	}()
}

func (s *Session) botAnswered(turn uint64, d bot.Decision, ok bool) {
	if turn != s.turn || s.hand == nil {
		return
	}
	if !ok {
		s.applyDefault("bot: " + d.Reason)
		return
	}
	seat := s.hand.Actor
	s.endTurn()
	if err := s.hand.ProcessAction(d.Action); err != nil {
		// Decide already validated the action, so this is a stale view.
		s.logger.Error().Err(err).Int("seat", seat).Msg("bot action rejected")
		s.requestAction()
		s.publishState()
		return
	}
	s.logger.Debug().
		Int("seat", seat).
		Str("action", d.Action.Kind.String()).
		Int("amount", d.Action.Amount).
		Str("reason", d.Reason).
		Msg("bot acted")
	s.afterChange()
}
