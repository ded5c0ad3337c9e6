package history

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/holdemtable/internal/game"
)

//go:embed schema.sql
var schema embed.FS

// PostgresStore keeps hands in a Postgres "hands" table as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the hands table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec game.HandRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode hand %s: %w", rec.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO hands (id, table_id, hand_number, started_at, ended_at, pot, showdown, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		  SET record = EXCLUDED.record,
		      ended_at = EXCLUDED.ended_at`,
		rec.ID, rec.TableID, rec.HandNumber, rec.StartedAt, rec.EndedAt, rec.Pot, rec.Showdown, doc)
	if err != nil {
		return fmt.Errorf("save hand %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, tableID string) ([]game.HandRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM hands WHERE table_id = $1 ORDER BY hand_number, started_at, id`, tableID)
	if err != nil {
		return nil, fmt.Errorf("list hands for %s: %w", tableID, err)
	}
	defer rows.Close()
	return scanRecords(func(dest *[]byte) (bool, error) {
		if !rows.Next() {
			return false, rows.Err()
		}
		return true, rows.Scan(dest)
	})
}

func (s *PostgresStore) LastHandNumber(ctx context.Context, tableID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(hand_number), 0) FROM hands WHERE table_id = $1`, tableID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("last hand for %s: %w", tableID, err)
	}
	return n, nil
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
