// Package history persists settled hands. Every backend implements Store;
// Open picks one from a DSN and Recorder keeps saves off the table's
// goroutine.
package history

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lox/holdemtable/internal/game"
)

// ErrClosed is returned by operations on a closed store or recorder.
var ErrClosed = errors.New("history: closed")

// Store saves hand records keyed by hand id and lists them per table in
// hand number order. A table id may be reused across runs, so two records
// can share a table and hand number.
type Store interface {
	Save(ctx context.Context, rec game.HandRecord) error
	List(ctx context.Context, tableID string) ([]game.HandRecord, error)
	// LastHandNumber is the highest hand number saved for tableID, or 0.
	LastHandNumber(ctx context.Context, tableID string) (int, error)
	Close() error
}

// compareRecords orders hands by number, then start time, then id.
func compareRecords(a, b game.HandRecord) int {
	return cmp.Or(
		cmp.Compare(a.HandNumber, b.HandNumber),
		a.StartedAt.Compare(b.StartedAt),
		strings.Compare(a.ID, b.ID),
	)
}

// Open returns the store named by dsn:
//
//	memory:                   in-process, lost on exit
//	sqlite:<path>             SQLite database file
//	postgres://... | postgresql://...
//	phh:<dir>                 one PHH file per hand under dir/<table>/
func Open(ctx context.Context, dsn string) (Store, error) {
	scheme, rest, _ := strings.Cut(dsn, ":")
	switch strings.ToLower(scheme) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return nil, fmt.Errorf("history: sqlite dsn needs a path")
		}
		return OpenSQLite(ctx, rest)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, dsn)
	case "phh":
		if rest == "" {
			return nil, fmt.Errorf("history: phh dsn needs a directory")
		}
		return NewPHHStore(rest)
	}
	return nil, fmt.Errorf("history: unsupported dsn scheme %q", scheme)
}
