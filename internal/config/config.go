// Package config loads the table server configuration from HCL, with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/lox/holdemtable/internal/bot"
	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/session"
)

// Environment variables that override the file.
const (
	EnvAddr       = "HOLDEM_ADDR"
	EnvHistoryDSN = "HOLDEM_HISTORY_DSN"
	EnvLogLevel   = "HOLDEM_LOG_LEVEL"
)

// Config is the complete server configuration.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Tables []TableConfig   `hcl:"table,block"`
	Bots   []BotConfig     `hcl:"bot,block"`
}

// ServerSettings holds process-wide settings. Durations use Go syntax
// ("30s", "1m30s").
type ServerSettings struct {
	Address        string `hcl:"address,optional"`
	LogLevel       string `hcl:"log_level,optional"`
	ActionTimeout  string `hcl:"action_timeout,optional"`
	BotBudget      string `hcl:"bot_budget,optional"`
	BotThinkMin    string `hcl:"bot_think_min,optional"`
	BotThinkMax    string `hcl:"bot_think_max,optional"`
	HistoryDSN     string `hcl:"history,optional"`
	HistoryTimeout string `hcl:"history_timeout,optional"`
}

// TableConfig defines one table.
type TableConfig struct {
	ID           string  `hcl:"id,label"`
	MaxPlayers   int     `hcl:"max_players,optional"`
	GameMode     string  `hcl:"game_mode,optional"`
	SmallBlind   int     `hcl:"small_blind,optional"`
	BigBlind     int     `hcl:"big_blind,optional"`
	AntePercent  float64 `hcl:"ante_percent,optional"`
	InitialChips int     `hcl:"initial_chips,optional"`
	AutoStart    string  `hcl:"auto_start,optional"`
}

// BotConfig seats a bot at a table. Without a seat it takes the first
// free one.
type BotConfig struct {
	Name  string `hcl:"name,label"`
	Tier  string `hcl:"tier"`
	Table string `hcl:"table,optional"`
	Seat  *int   `hcl:"seat,optional"`
	Chips int    `hcl:"chips,optional"`
}

// Default returns the configuration used when no file exists: one
// six-handed blinds table.
func Default() *Config {
	c := &Config{Tables: []TableConfig{{ID: "main"}}}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source and fills in defaults. It does not validate.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

// Normalize fills in defaults for anything added after loading.
func (c *Config) Normalize() { c.applyDefaults() }

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ActionTimeout == "" {
		c.Server.ActionTimeout = "30s"
	}
	if c.Server.BotBudget == "" {
		c.Server.BotBudget = "2s"
	}
	if c.Server.HistoryDSN == "" {
		c.Server.HistoryDSN = "memory:"
	}
	if c.Server.HistoryTimeout == "" {
		c.Server.HistoryTimeout = "2s"
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.MaxPlayers == 0 {
			t.MaxPlayers = 6
		}
		if t.GameMode == "" {
			t.GameMode = game.ModeBlinds.String()
		}
		if t.InitialChips == 0 {
			t.InitialChips = 1000
		}
		if t.GameMode == game.ModeBlinds.String() && t.SmallBlind == 0 && t.BigBlind == 0 {
			t.SmallBlind, t.BigBlind = 5, 10
		}
	}

	for i := range c.Bots {
		if c.Bots[i].Table == "" && len(c.Tables) > 0 {
			c.Bots[i].Table = c.Tables[0].ID
		}
	}
}

// ApplyEnv overrides settings from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup(EnvHistoryDSN); ok && v != "" {
		c.Server.HistoryDSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Server.LogLevel = strings.ToLower(v)
	}
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if _, err := c.Session(); err != nil {
		return err
	}
	if len(c.Tables) == 0 {
		return errors.New("at least one table must be configured")
	}

	ids := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if t.ID == "" {
			return errors.New("table id must not be empty")
		}
		if ids[t.ID] {
			return fmt.Errorf("table %s: declared twice", t.ID)
		}
		ids[t.ID] = true
		gc, err := t.Game()
		if err != nil {
			return fmt.Errorf("table %s: %w", t.ID, err)
		}
		if err := gc.Validate(); err != nil {
			return fmt.Errorf("table %s: %w", t.ID, err)
		}
		if _, err := t.AutoStartDelay(); err != nil {
			return fmt.Errorf("table %s: %w", t.ID, err)
		}
	}

	for _, b := range c.Bots {
		if _, err := bot.ParseTier(b.Tier); err != nil {
			return fmt.Errorf("bot %s: %w", b.Name, err)
		}
		if !ids[b.Table] {
			return fmt.Errorf("bot %s: unknown table %q", b.Name, b.Table)
		}
		if b.Chips < 0 {
			return fmt.Errorf("bot %s: chips must not be negative", b.Name)
		}
	}
	return nil
}

// Session returns the timing shared by every table.
func (c *Config) Session() (session.Config, error) {
	var cfg session.Config
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"action_timeout", c.Server.ActionTimeout, &cfg.ActionTimeout},
		{"bot_budget", c.Server.BotBudget, &cfg.BotBudget},
		{"bot_think_min", c.Server.BotThinkMin, &cfg.BotThinkMin},
		{"bot_think_max", c.Server.BotThinkMax, &cfg.BotThinkMax},
		{"history_timeout", c.Server.HistoryTimeout, &cfg.HistoryTimeout},
	}
	for _, f := range fields {
		d, err := parseDuration(f.value)
		if err != nil {
			return cfg, fmt.Errorf("server %s: %w", f.name, err)
		}
		*f.dst = d
	}
	if cfg.BotBudget >= cfg.ActionTimeout {
		return cfg, fmt.Errorf("server bot_budget %s must be shorter than action_timeout %s", cfg.BotBudget, cfg.ActionTimeout)
	}
	return cfg, nil
}

// Game converts the table block to the engine's table configuration.
func (t TableConfig) Game() (game.Config, error) {
	mode, err := game.ParseMode(t.GameMode)
	if err != nil {
		return game.Config{}, err
	}
	return game.Config{
		Capacity:     t.MaxPlayers,
		Mode:         mode,
		SmallBlind:   t.SmallBlind,
		BigBlind:     t.BigBlind,
		AntePercent:  t.AntePercent,
		InitialChips: t.InitialChips,
	}, nil
}

// AutoStartDelay is how long the table waits between hands. Zero means
// hands are only started on request.
func (t TableConfig) AutoStartDelay() (time.Duration, error) {
	return parseDuration(t.AutoStart)
}

// BuildTables creates every configured table and seats its bots.
func (c *Config) BuildTables() ([]*game.Table, error) {
	tables := make([]*game.Table, 0, len(c.Tables))
	byID := make(map[string]*game.Table, len(c.Tables))
	for _, tc := range c.Tables {
		gc, err := tc.Game()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tc.ID, err)
		}
		t, err := game.NewTable(tc.ID, gc)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tc.ID, err)
		}
		tables = append(tables, t)
		byID[tc.ID] = t
	}

	for _, b := range c.Bots {
		t, ok := byID[b.Table]
		if !ok {
			return nil, fmt.Errorf("bot %s: unknown table %q", b.Name, b.Table)
		}
		tier, err := bot.ParseTier(b.Tier)
		if err != nil {
			return nil, fmt.Errorf("bot %s: %w", b.Name, err)
		}
		seat := firstFree(t)
		if b.Seat != nil {
			seat = *b.Seat
		}
		occ := game.Occupant{ID: "bot-" + b.Name, Name: b.Name, Bot: tier.String()}
		if err := t.Join(seat, occ, b.Chips); err != nil {
			return nil, fmt.Errorf("bot %s: %w", b.Name, err)
		}
	}
	return tables, nil
}

// TableConfig returns the block for id.
func (c *Config) TableConfig(id string) (TableConfig, bool) {
	for _, t := range c.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return TableConfig{}, false
}

func firstFree(t *game.Table) int {
	for i := range t.Seats {
		if !t.Seats[i].Occupied() {
			return i
		}
	}
	return len(t.Seats)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
