// Package session runs tables. Each Session is a single goroutine that owns
// its table: commands arrive on a channel, timers and bot decisions are fed
// back through the same channel, and every state change is published to a
// Sink as a game.Event.
package session

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/internal/bot"
	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/history"
	"github.com/lox/holdemtable/internal/randutil"
	"github.com/lox/holdemtable/poker"
)

// Config holds the timing policy of a table.
type Config struct {
	// ActionTimeout is how long a seat has to act before the default
	// action (check or fold) is applied.
	ActionTimeout time.Duration
	// BotBudget bounds a bot's decision. It is capped below ActionTimeout.
	BotBudget time.Duration
	// BotThinkMin and BotThinkMax bound an artificial pause before a bot
	// acts, taken out of the bot budget.
	BotThinkMin time.Duration
	BotThinkMax time.Duration
	// AutoStart, when positive, starts the next hand this long after the
	// previous one settles.
	AutoStart time.Duration
	// HistoryTimeout bounds how long settlement waits for the history
	// save before publishing the result anyway.
	HistoryTimeout time.Duration
	// EquitySimulations is the default sample count for Equity queries.
	EquitySimulations int
}

// DefaultConfig returns the timing used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		ActionTimeout:     30 * time.Second,
		BotBudget:         2 * time.Second,
		HistoryTimeout:    2 * time.Second,
		EquitySimulations: 2000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = d.ActionTimeout
	}
	if c.BotBudget <= 0 {
		c.BotBudget = d.BotBudget
	}
	if c.BotBudget >= c.ActionTimeout {
		c.BotBudget = c.ActionTimeout / 2
	}
	if c.BotThinkMax < c.BotThinkMin {
		c.BotThinkMax = c.BotThinkMin
	}
	if c.HistoryTimeout <= 0 {
		c.HistoryTimeout = d.HistoryTimeout
	}
	if c.EquitySimulations <= 0 {
		c.EquitySimulations = d.EquitySimulations
	}
	return c
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

func WithSink(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithRecorder persists settled hands through r. The recorder is shared and
// is not closed by the session.
func WithRecorder(r *history.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithSeed makes dealing and bot play reproducible.
func WithSeed(seed int64) Option {
	return func(s *Session) { s.rng = randutil.New(seed) }
}

func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// Stage is where the table is in its hand lifecycle.
type Stage string

const (
	StageIdle     Stage = "idle"
	StageInHand   Stage = "hand_in_progress"
	StageSettling Stage = "hand_settled"
)

// Session owns one table. All exported methods are safe to call from any
// goroutine once Run has started.
type Session struct {
	table    *game.Table
	cfg      Config
	clock    quartz.Clock
	logger   zerolog.Logger
	sink     Sink
	recorder *history.Recorder
	rng      *rand.Rand

	ownsRecorder bool

	cmds    chan func()
	done    chan struct{}
	stopped sync.Once
	ctx     context.Context

	// Everything below is touched only by the Run goroutine.
	hand      *game.Hand
	stage     Stage
	bots      map[int]bot.Strategy
	leaving   map[int]bool
	turn      uint64
	awaiting  int
	deadline  time.Time
	turnTimer *quartz.Timer
	autoTimer *quartz.Timer
	closed    bool

	state atomic.Pointer[tableState]

	queryMu  sync.Mutex
	queryRNG *rand.Rand
}

// New creates a session for table. Call Run to start it.
func New(table *game.Table, opts ...Option) *Session {
	s := &Session{
		table:    table,
		logger:   zerolog.Nop(),
		sink:     Discard,
		cmds:     make(chan func(), 64),
		done:     make(chan struct{}),
		stage:    StageIdle,
		bots:     make(map[int]bot.Strategy),
		leaving:  make(map[int]bool),
		awaiting: -1,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg = s.cfg.withDefaults()
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.rng == nil {
		s.rng = randutil.New(randutil.Seed(nil))
	}
	s.queryRNG = randutil.Child(s.rng)
	if s.recorder == nil {
		s.recorder = history.NewRecorder(s.logger, history.NewMemoryStore(), history.RecorderConfig{})
		s.ownsRecorder = true
	}
	s.logger = s.logger.With().Str("component", "session").Str("table_id", table.ID).Logger()

	// Seats filled before the session starts may hold bots.
	for i := range table.Seats {
		if occ := table.Seats[i].Occupant; occ != nil && occ.IsBot() {
			if strategy, err := s.newBot(*occ); err == nil {
				s.bots[i] = strategy
			}
		}
	}
	s.publishState()
	return s
}

// ID returns the table id.
func (s *Session) ID() string { return s.table.ID }

// Run processes commands until ctx is cancelled or the table is closed.
func (s *Session) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx = runCtx
	defer s.stop()

	s.logger.Info().Int("capacity", len(s.table.Seats)).Str("mode", s.table.Config.Mode.String()).Msg("table open")
	s.resumeNumbering(runCtx)
	if s.cfg.AutoStart > 0 {
		s.scheduleAutoStart()
	}
	for {
		select {
		case <-runCtx.Done():
			s.logger.Info().Msg("table stopping")
			return nil
		case fn := <-s.cmds:
			fn()
		}
		if s.closed {
			s.logger.Info().Msg("table closed")
			return nil
		}
	}
}

// resumeNumbering continues hand numbers after the last hand stored for
// this table id, so a restarted or recreated table does not reuse them.
func (s *Session) resumeNumbering(ctx context.Context) {
	if s.table.HandNumber != 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HistoryTimeout)
	defer cancel()
	last, err := s.recorder.LastHandNumber(ctx, s.table.ID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not read last hand number, numbering from 1")
		return
	}
	if last > 0 {
		s.table.HandNumber = last
		s.logger.Info().Int("last_hand", last).Msg("resuming hand numbers")
		s.publishState()
	}
}

func (s *Session) stop() {
	s.stopped.Do(func() {
		close(s.done)
		s.stopTurnTimer()
		if s.autoTimer != nil {
			s.autoTimer.Stop()
		}
		if s.ownsRecorder {
			if err := s.recorder.Close(); err != nil {
				s.logger.Error().Err(err).Msg("failed to close history")
			}
		}
	})
}

// post hands fn to the Run goroutine without waiting for it to execute.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}

// do runs fn on the Run goroutine and returns its error.
func (s *Session) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- func() { reply <- fn() }:
	case <-s.done:
		return game.ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		// The command that closed the table still gets its answer.
		select {
		case err := <-reply:
			return err
		default:
			return game.ErrTableClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartHand deals a new hand.
func (s *Session) StartHand(ctx context.Context) error {
	return s.do(ctx, s.startHand)
}

// SubmitAction applies a seat's action to the running hand. An illegal
// action leaves the hand unchanged.
func (s *Session) SubmitAction(ctx context.Context, a game.Action) error {
	return s.do(ctx, func() error {
		if s.hand == nil {
			return game.ErrNoHand
		}
		if err := s.hand.ProcessAction(a); err != nil {
			return err
		}
		s.logger.Debug().Int("seat", a.Seat).Str("action", a.Kind.String()).Int("amount", a.Amount).Msg("action")
		s.endTurn()
		s.afterChange()
		return nil
	})
}

// JoinSeat seats occ at pos. Chips of zero means the table's initial
// stack. Someone joining mid-hand is dealt in from the next hand.
func (s *Session) JoinSeat(ctx context.Context, pos int, occ game.Occupant, chips int) error {
	return s.do(ctx, func() error {
		var strategy bot.Strategy
		if occ.IsBot() {
			var err error
			if strategy, err = s.newBot(occ); err != nil {
				return err
			}
		}
		if err := s.table.Join(pos, occ, chips); err != nil {
			return err
		}
		if strategy != nil {
			s.bots[pos] = strategy
		}
		s.logger.Info().Int("seat", pos).Str("player", occ.Name).Str("bot", occ.Bot).Msg("seat taken")
		s.publishState()
		if s.cfg.AutoStart > 0 && s.stage == StageIdle {
			s.scheduleAutoStart()
		}
		return nil
	})
}

// LeaveSeat vacates pos. During a hand the seat folds at once and is
// vacated after settlement.
func (s *Session) LeaveSeat(ctx context.Context, pos int) error {
	return s.do(ctx, func() error {
		if pos < 0 || pos >= len(s.table.Seats) {
			return fmt.Errorf("%w: %d", game.ErrInvalidSeat, pos)
		}
		if !s.table.Seats[pos].Occupied() {
			return fmt.Errorf("%w: %d", game.ErrSeatEmpty, pos)
		}
		if s.hand == nil || !s.hand.InHand(pos) {
			return s.vacate(pos)
		}
		s.leaving[pos] = true
		if pos == s.hand.Actor {
			s.endTurn()
		}
		s.hand.Forfeit(pos)
		s.afterChange()
		return nil
	})
}

func (s *Session) vacate(pos int) error {
	occ, err := s.table.Leave(pos)
	if err != nil {
		return err
	}
	delete(s.bots, pos)
	delete(s.leaving, pos)
	s.logger.Info().Int("seat", pos).Str("player", occ.Name).Msg("seat vacated")
	s.publishState()
	return nil
}

// Close shuts the table down. It fails while a hand is in progress.
func (s *Session) Close(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.stage != StageIdle {
			return game.ErrHandInProgress
		}
		s.closed = true
		return nil
	})
}

// History lists the table's settled hands, oldest first.
func (s *Session) History(ctx context.Context) ([]game.HandRecord, error) {
	return s.recorder.List(ctx, s.table.ID)
}

// Equity estimates seat's chance of winning the running hand against the
// players still in it.
func (s *Session) Equity(ctx context.Context, seat, sims int) (poker.EquityResult, error) {
	st := s.state.Load()
	if st.stage != StageInHand || seat < 0 || seat >= len(st.holes) || len(st.holes[seat]) != 2 {
		return poker.EquityResult{}, game.ErrNoHand
	}
	if sims <= 0 {
		sims = s.cfg.EquitySimulations
	}
	opponents := 0
	for pos, sv := range st.seats {
		if pos != seat && st.holes[pos] != nil && sv.Status != game.StatusFolded {
			opponents++
		}
	}

	s.queryMu.Lock()
	rng := randutil.Child(s.queryRNG)
	s.queryMu.Unlock()
	return poker.Equity(ctx, poker.NewHand(st.holes[seat]...), poker.NewHand(st.board...), opponents, sims, rng), nil
}

func (s *Session) newBot(occ game.Occupant) (bot.Strategy, error) {
	tier, err := bot.ParseTier(occ.Bot)
	if err != nil {
		return nil, err
	}
	return bot.New(tier, randutil.Child(s.rng)), nil
}

func (s *Session) startHand() error {
	if s.closed {
		return game.ErrTableClosed
	}
	if s.stage != StageIdle {
		return game.ErrHandInProgress
	}
	if s.autoTimer != nil {
		s.autoTimer.Stop()
		s.autoTimer = nil
	}
	h, err := game.StartHand(s.table,
		game.WithRNG(s.rng),
		game.WithClock(func() time.Time { return s.clock.Now() }))
	if err != nil {
		return err
	}
	s.hand = h
	s.stage = StageInHand
	s.logger.Info().Int("hand", h.Number).Str("hand_id", h.ID).Int("button", h.Button).Msg("hand started")
	s.afterChange()
	return nil
}

// afterChange publishes what the hand did and moves it on: settle when
// complete, otherwise ask the next seat to act.
func (s *Session) afterChange() {
	h := s.hand
	for _, e := range h.DrainEvents() {
		s.emit(e)
	}
	if h.Complete() {
		s.settle()
		return
	}
	if h.Actor != s.awaiting {
		s.requestAction()
	}
	s.publishState()
}

func (s *Session) emit(e game.Event) {
	if applied, ok := e.(game.ActionApplied); ok {
		s.observe(applied)
	}
	s.sink.Publish(s.table.ID, e)
}

// observe feeds an action to every bot that tracks opponents.
func (s *Session) observe(e game.ActionApplied) {
	occ := s.table.Seats[e.Seat].Occupant
	if occ == nil {
		return
	}
	for pos, strategy := range s.bots {
		if o, ok := strategy.(bot.Observer); ok && pos != e.Seat {
			o.Observe(occ.ID, e.Kind)
		}
	}
}

func (s *Session) settle() {
	rec, _ := s.hand.Record()
	s.hand = nil
	s.stage = StageSettling
	s.awaiting = -1

	for pos := range s.leaving {
		if err := s.vacate(pos); err != nil {
			s.logger.Error().Err(err).Int("seat", pos).Msg("failed to vacate seat")
		}
	}
	s.logger.Info().
		Int("hand", rec.HandNumber).
		Int("pot", rec.Pot).
		Bool("showdown", rec.Showdown).
		Int("winners", len(rec.Winners)).
		Msg("hand settled")
	s.publishState()

	saved := s.recorder.Record(rec)
	timeout := s.clock.NewTimer(s.cfg.HistoryTimeout, "history")
	go func() {
		var err error
		select {
		case err = <-saved:
		case <-timeout.C:
			err = errors.New("history save still pending")
		case <-s.done:
			timeout.Stop()
			return
		}
		timeout.Stop()
		s.post(func() { s.finishSettle(rec, err) })
	}()
}

func (s *Session) finishSettle(rec game.HandRecord, err error) {
	settled := game.HandSettled{Record: rec}
	if err != nil {
		settled.HistoryErr = err.Error()
		s.logger.Error().Err(err).Int("hand", rec.HandNumber).Msg("hand history not saved")
	}
	s.stage = StageIdle
	s.emit(settled)
	s.publishState()
	if s.cfg.AutoStart > 0 {
		s.scheduleAutoStart()
	}
}

func (s *Session) scheduleAutoStart() {
	if s.autoTimer != nil || !s.table.CanStart() {
		return
	}
	s.autoTimer = s.clock.AfterFunc(s.cfg.AutoStart, func() {
		s.post(func() {
			s.autoTimer = nil
			if s.stage != StageIdle || !s.table.CanStart() {
				return
			}
			if err := s.startHand(); err != nil {
				s.logger.Warn().Err(err).Msg("auto start failed")
			}
		})
	}, "autostart")
}
