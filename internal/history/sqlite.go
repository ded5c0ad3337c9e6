package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lox/holdemtable/internal/game"
)

// SQLiteStore keeps one JSON document per hand in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS hands (
		id TEXT PRIMARY KEY,
		table_id TEXT NOT NULL,
		hand_number INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		pot INTEGER NOT NULL,
		showdown BOOLEAN NOT NULL DEFAULT 0,
		record TEXT NOT NULL
	)`,
	`DROP INDEX IF EXISTS idx_hands_table_number`,
	`CREATE INDEX IF NOT EXISTS idx_hands_table ON hands(table_id, hand_number)`,
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec game.HandRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode hand %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hands (id, table_id, hand_number, started_at, ended_at, pot, showdown, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET record = excluded.record, ended_at = excluded.ended_at`,
		rec.ID, rec.TableID, rec.HandNumber, rec.StartedAt.UTC(), rec.EndedAt.UTC(), rec.Pot, rec.Showdown, string(doc))
	if err != nil {
		return fmt.Errorf("save hand %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, tableID string) ([]game.HandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM hands WHERE table_id = ? ORDER BY hand_number, started_at, id`, tableID)
	if err != nil {
		return nil, fmt.Errorf("list hands for %s: %w", tableID, err)
	}
	defer rows.Close()
	return scanRecords(func(dest *[]byte) (bool, error) {
		if !rows.Next() {
			return false, rows.Err()
		}
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return false, err
		}
		*dest = []byte(doc)
		return true, nil
	})
}

func (s *SQLiteStore) LastHandNumber(ctx context.Context, tableID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(hand_number), 0) FROM hands WHERE table_id = ?`, tableID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("last hand for %s: %w", tableID, err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// scanRecords decodes JSON documents until next reports no more rows.
func scanRecords(next func(dest *[]byte) (bool, error)) ([]game.HandRecord, error) {
	out := []game.HandRecord{}
	for {
		var doc []byte
		ok, err := next(&doc)
		if err != nil {
			return nil, fmt.Errorf("read hand row: %w", err)
		}
		if !ok {
			return out, nil
		}
		var rec game.HandRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode hand record: %w", err)
		}
		out = append(out, rec)
	}
}
