package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lox/holdemtable/internal/config"
	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/history"
	"github.com/lox/holdemtable/internal/phh"
)

// HistoryCmd lists a table's recorded hands from any history store.
type HistoryCmd struct {
	Table   string   `arg:"" help:"Table id"`
	DSN     string   `kong:"name='dsn',help='History store DSN (defaults to HOLDEM_HISTORY_DSN)'"`
	EnvFile []string `kong:"name='env-file',default='.env',help='dotenv files to load first'"`
	Format  string   `kong:"default='table',enum='table,phh',help='Output format'"`
	Last    int      `kong:"help='Only show the most recent N hands (0 = all)'"`
}

func (c *HistoryCmd) Run() error {
	if err := loadDotEnv(c.EnvFile); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := c.DSN
	if dsn == "" {
		dsn = os.Getenv(config.EnvHistoryDSN)
	}
	if dsn == "" {
		return fmt.Errorf("no history store: pass --dsn or set %s", config.EnvHistoryDSN)
	}
	store, err := history.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(ctx, c.Table)
	if err != nil {
		return err
	}
	if c.Last > 0 && len(records) > c.Last {
		records = records[len(records)-c.Last:]
	}
	if len(records) == 0 {
		return fmt.Errorf("no hands recorded for table %s", c.Table)
	}

	if c.Format == "phh" {
		return writePHH(os.Stdout, records)
	}
	writeHandTable(os.Stdout, records)
	return nil
}

func writePHH(w io.Writer, records []game.HandRecord) error {
	for i, rec := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%d]\n", rec.HandNumber); err != nil {
			return err
		}
		if err := phh.Encode(w, phh.FromRecord(rec)); err != nil {
			return fmt.Errorf("hand %d: %w", rec.HandNumber, err)
		}
	}
	return nil
}

func writeHandTable(w io.Writer, records []game.HandRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "hand\tstarted\tbutton\tpot\tboard\tshowdown\twinners")
	for _, rec := range records {
		board := make([]string, len(rec.Board))
		for i, c := range rec.Board {
			board[i] = c.String()
		}
		winners := make([]string, len(rec.Winners))
		for i, win := range rec.Winners {
			winners[i] = fmt.Sprintf("%s +%d", win.Name, win.Amount)
			if win.Hand != "" {
				winners[i] += " (" + win.Hand + ")"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%t\t%s\n",
			rec.HandNumber,
			rec.StartedAt.UTC().Format(time.DateTime),
			rec.Button,
			rec.Pot,
			strings.Join(board, " "),
			rec.Showdown,
			strings.Join(winners, ", "))
	}
	_ = tw.Flush()
}
