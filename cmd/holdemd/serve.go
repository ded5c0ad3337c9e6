package main

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/lox/holdemtable/cmd/holdemd/shared"
	"github.com/lox/holdemtable/internal/config"
	"github.com/lox/holdemtable/internal/history"
	"github.com/lox/holdemtable/internal/randutil"
	"github.com/lox/holdemtable/internal/server"
	"github.com/lox/holdemtable/internal/session"
)

// ServeCmd runs the HTTP and WebSocket server for every configured table.
type ServeCmd struct {
	Config  string   `kong:"short='c',default='holdem.hcl',help='HCL config file (defaults are used if it does not exist)'"`
	EnvFile []string `kong:"name='env-file',default='.env',help='dotenv files to load before reading the environment'"`
	Addr    string   `kong:"help='Listen address, overrides the config file and HOLDEM_ADDR'"`
	History string   `kong:"help='History store DSN (memory:, sqlite:<path>, postgres://..., phh:<dir>)'"`
	Debug   bool     `kong:"help='Enable debug logging'"`
	LogJSON bool     `kong:"name='log-json',help='Log JSON instead of console output'"`
	Seed    *int64   `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := loadConfig(c.Config, c.EnvFile)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.History != "" {
		cfg.Server.HistoryDSN = c.History
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel, c.LogJSON)
	if err != nil {
		return err
	}
	timing, err := cfg.Session()
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	store, err := history.Open(ctx, cfg.Server.HistoryDSN)
	if err != nil {
		return err
	}
	recorder := history.NewRecorder(logger, store, history.RecorderConfig{})
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close history store")
		}
	}()

	seed := randutil.Seed(c.Seed)
	logger.Info().Int64("seed", seed).Str("history", cfg.Server.HistoryDSN).Msg("starting holdemd")

	hub := server.NewHub(logger)
	manager := session.NewManager(
		session.WithLogger(logger),
		session.WithSink(hub),
		session.WithRecorder(recorder),
	)
	if err := addTables(manager, cfg, timing, seed); err != nil {
		return err
	}

	srv := server.New(manager, hub, logger, server.WithTiming(timing))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return manager.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Address) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

func loadDotEnv(files []string) error {
	return config.LoadDotEnv(files...)
}

func loadConfig(path string, envFiles []string) (*config.Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// addTables builds every configured table and registers it with its own
// auto-start delay and a seed derived from the process seed.
func addTables(m *session.Manager, cfg *config.Config, timing session.Config, seed int64) error {
	tables, err := cfg.BuildTables()
	if err != nil {
		return err
	}
	for i, t := range tables {
		tc, _ := cfg.TableConfig(t.ID)
		tableTiming := timing
		if tableTiming.AutoStart, err = tc.AutoStartDelay(); err != nil {
			return err
		}
		if _, err := m.Add(t, session.WithConfig(tableTiming), session.WithSeed(seed+int64(i))); err != nil {
			return err
		}
	}
	return nil
}
