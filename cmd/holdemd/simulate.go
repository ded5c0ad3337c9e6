package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/cmd/holdemd/shared"
	"github.com/lox/holdemtable/internal/bot"
	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/history"
	"github.com/lox/holdemtable/internal/randutil"
	"github.com/lox/holdemtable/internal/session"
	"github.com/lox/holdemtable/internal/tableid"
)

// SimulateCmd plays bot-only hands at a single table.
type SimulateCmd struct {
	Hands       int           `kong:"default='200',help='Number of hands to play'"`
	Bots        []string      `kong:"default='beginner,intermediate,advanced',help='Bot tiers, one per seat'"`
	Mode        string        `kong:"default='blinds',enum='blinds,ante',help='Forced bet mode'"`
	SmallBlind  int           `kong:"default='5',help='Small blind'"`
	BigBlind    int           `kong:"default='10',help='Big blind'"`
	AntePercent float64       `kong:"default='0.01',help='Ante as a fraction of the starting stack (ante mode)'"`
	Chips       int           `kong:"default='1000',help='Starting stack'"`
	Budget      time.Duration `kong:"default='500ms',help='Bot decision budget'"`
	History     string        `kong:"default='memory:',help='History store DSN'"`
	Seed        *int64        `kong:"help='Deterministic RNG seed (optional)'"`
	Debug       bool          `kong:"help='Enable debug logging'"`
	LogJSON     bool          `kong:"name='log-json',help='Log JSON instead of console output'"`
}

func (c *SimulateCmd) Run() error {
	level := "warn"
	if c.Debug {
		level = "debug"
	}
	logger, err := shared.SetupLogger(level, c.LogJSON)
	if err != nil {
		return err
	}
	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	seed := randutil.Seed(c.Seed)
	table, err := c.buildTable()
	if err != nil {
		return err
	}

	store, err := history.Open(ctx, c.History)
	if err != nil {
		return err
	}
	recorder := history.NewRecorder(logger, store, history.RecorderConfig{})
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close history store")
		}
	}()

	fmt.Printf("Simulating %d hands at table %s (seed: %d)\n", c.Hands, table.ID, seed)
	start := time.Now()
	stats, played, err := simulate(ctx, logger, table, recorder, c.Hands, seed, c.Budget)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, stats, played, time.Since(start))
	return nil
}

func (c *SimulateCmd) buildTable() (*game.Table, error) {
	if len(c.Bots) < 2 {
		return nil, errors.New("simulate needs at least two bots")
	}
	capacity := 0
	for _, n := range game.Capacities {
		if n >= len(c.Bots) {
			capacity = n
			break
		}
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%d bots do not fit at any table size %v", len(c.Bots), game.Capacities)
	}
	mode, err := game.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	cfg := game.Config{Capacity: capacity, Mode: mode, InitialChips: c.Chips}
	if mode == game.ModeAnte {
		cfg.AntePercent = c.AntePercent
	} else {
		cfg.SmallBlind, cfg.BigBlind = c.SmallBlind, c.BigBlind
	}

	table, err := game.NewTable("sim-"+tableid.New(), cfg)
	if err != nil {
		return nil, err
	}
	for i, name := range c.Bots {
		tier, err := bot.ParseTier(name)
		if err != nil {
			return nil, err
		}
		occ := game.Occupant{
			ID:   fmt.Sprintf("bot-%d", i),
			Name: fmt.Sprintf("%s-%d", strings.ToUpper(tier.String()[:1]), i),
			Bot:  tier.String(),
		}
		if err := table.Join(i, occ, 0); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// simulate runs a session over table until hands have been played or too
// few seats have chips.
func simulate(ctx context.Context, logger zerolog.Logger, table *game.Table, recorder *history.Recorder,
	hands int, seed int64, budget time.Duration) (map[int]*SeatStats, int, error) {
	settled := make(chan game.HandSettled, 1)
	sink := session.SinkFunc(func(_ string, e game.Event) {
		if hs, ok := e.(game.HandSettled); ok {
			select {
			case settled <- hs:
			default:
			}
		}
	})

	s := session.New(table,
		session.WithLogger(logger),
		session.WithSink(sink),
		session.WithRecorder(recorder),
		session.WithSeed(seed),
		session.WithConfig(session.Config{ActionTimeout: 4 * budget, BotBudget: budget}),
	)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()

	stats := make(map[int]*SeatStats)
	for i := range table.Seats {
		if occ := table.Seats[i].Occupant; occ != nil {
			stats[i] = &SeatStats{Name: occ.Name, Tier: occ.Bot, FinalChips: table.Seats[i].Chips}
		}
	}
	bb := table.Config.MinBet()

	played := 0
	for played < hands {
		err := s.StartHand(ctx)
		if errors.Is(err, game.ErrInsufficientPlayers) {
			break
		}
		if err != nil {
			return nil, played, err
		}
		select {
		case hs := <-settled:
			played++
			for _, seat := range hs.Record.Seats {
				if st, ok := stats[seat.Seat]; ok {
					st.Add(seat, hs.Record, bb)
				}
			}
			if hs.HistoryErr != "" {
				logger.Warn().Str("error", hs.HistoryErr).Int("hand", hs.Record.HandNumber).Msg("hand not recorded")
			}
		case <-ctx.Done():
			return stats, played, nil
		}
	}

	cancel()
	if err := <-done; err != nil {
		return stats, played, err
	}
	return stats, played, nil
}

func printSummary(w io.Writer, stats map[int]*SeatStats, played int, elapsed time.Duration) {
	fmt.Fprintf(w, "\n%d hands in %s", played, elapsed.Round(time.Millisecond))
	if played > 0 {
		fmt.Fprintf(w, " (%.0f hands/sec)", float64(played)/elapsed.Seconds())
	}
	fmt.Fprintln(w)

	seats := make([]int, 0, len(stats))
	for seat := range stats {
		seats = append(seats, seat)
	}
	slices.Sort(seats)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "seat\tname\ttier\thands\twins\tshowdown\tbb/hand\t95% ci\tchips\t")
	for _, seat := range seats {
		s := stats[seat]
		lo, hi := s.ConfidenceInterval95()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%+.2f\t[%+.2f, %+.2f]\t%d\t\n",
			seat, s.Name, s.Tier, s.Hands, s.Wins, s.ShowdownWins, s.Mean(), lo, hi, s.FinalChips)
	}
	_ = tw.Flush()
}
