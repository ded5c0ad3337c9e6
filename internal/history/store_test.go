package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/randutil"
)

// playHands settles n hands at a three-seat table where every decision
// times out.
func playHands(t *testing.T, tableID string, n int) []game.HandRecord {
	t.Helper()
	tbl, err := game.NewTable(tableID, game.Config{
		Capacity: 4, Mode: game.ModeBlinds, SmallBlind: 5, BigBlind: 10, InitialChips: 500,
	})
	require.NoError(t, err)
	for i := range 3 {
		require.NoError(t, tbl.Join(i, game.Occupant{ID: fmt.Sprintf("id%d", i), Name: fmt.Sprintf("p%d", i)}, 0))
	}

	rng := randutil.New(7)
	clock := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	var out []game.HandRecord
	for range n {
		h, err := game.StartHand(tbl, game.WithRNG(rng), game.WithClock(func() time.Time { return clock }))
		require.NoError(t, err)
		for !h.Complete() {
			_, err := h.ApplyTimeout()
			require.NoError(t, err)
		}
		rec, ok := h.Record()
		require.True(t, ok)
		out = append(out, rec)
		clock = clock.Add(time.Minute)
	}
	return out
}

func assertSameRecords(t *testing.T, want, got []game.HandRecord) {
	t.Helper()
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recs := playHands(t, "mem", 3)

	s := NewMemoryStore()
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, s.Save(ctx, recs[i]))
	}
	require.NoError(t, s.Save(ctx, recs[1]))

	got, err := s.List(ctx, "mem")
	require.NoError(t, err)
	assertSameRecords(t, recs, got)

	other, err := s.List(ctx, "elsewhere")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Save(ctx, recs[0]), ErrClosed)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	recs := playHands(t, "lite", 4)

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, s.Save(ctx, rec))
	}
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.List(ctx, "lite")
	require.NoError(t, err)
	assertSameRecords(t, recs, got)
}

func TestPHHStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	recs := playHands(t, "files", 3)

	s, err := NewPHHStore(dir)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, s.Save(ctx, rec))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "files"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	got, err := s.List(ctx, "files")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rec := range got {
		want := recs[i]
		assert.Equal(t, want.ID, rec.ID)
		assert.Equal(t, want.HandNumber, rec.HandNumber)
		assert.Equal(t, want.Pot, rec.Pot)
		assert.Equal(t, want.Board, rec.Board)
		assert.Equal(t, want.Seats, rec.Seats)
		assert.Zero(t, rec.NetChange())
	}

	missing, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStoresKeepReusedTableIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	first := playHands(t, "main", 1)[0]
	second := playHands(t, "main", 1)[0]
	second.StartedAt = first.StartedAt.Add(time.Hour)
	require.Equal(t, first.HandNumber, second.HandNumber)
	require.NotEqual(t, first.ID, second.ID)

	for _, dsn := range []string{"memory:", "sqlite:" + filepath.Join(dir, "h.db"), "phh:" + filepath.Join(dir, "phh")} {
		s, err := Open(ctx, dsn)
		require.NoError(t, err, dsn)

		last, err := s.LastHandNumber(ctx, "main")
		require.NoError(t, err, dsn)
		assert.Zero(t, last, dsn)

		require.NoError(t, s.Save(ctx, first), dsn)
		require.NoError(t, s.Save(ctx, second), dsn)
		require.NoError(t, s.Save(ctx, second), dsn)

		got, err := s.List(ctx, "main")
		require.NoError(t, err, dsn)
		require.Len(t, got, 2, dsn)
		assert.Equal(t, first.ID, got[0].ID, dsn)
		assert.Equal(t, second.ID, got[1].ID, dsn)

		last, err = s.LastHandNumber(ctx, "main")
		require.NoError(t, err, dsn)
		assert.Equal(t, first.HandNumber, last, dsn)
		require.NoError(t, s.Close(), dsn)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	for _, dsn := range []string{"memory:", "", "sqlite:" + filepath.Join(dir, "h.db"), "phh:" + filepath.Join(dir, "phh")} {
		s, err := Open(ctx, dsn)
		require.NoError(t, err, dsn)
		require.NoError(t, s.Close())
	}

	for _, dsn := range []string{"sqlite:", "phh:", "mongodb://localhost"} {
		_, err := Open(ctx, dsn)
		assert.Error(t, err, dsn)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("HOLDEM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HOLDEM_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	tableID := fmt.Sprintf("pg-%d", time.Now().UnixNano())
	recs := playHands(t, tableID, 2)

	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	for _, rec := range recs {
		require.NoError(t, s.Save(ctx, rec))
	}
	got, err := s.List(ctx, tableID)
	require.NoError(t, err)
	assertSameRecords(t, recs, got)
}

type blockingStore struct {
	*MemoryStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) Save(ctx context.Context, rec game.HandRecord) error {
	b.started <- struct{}{}
	<-b.release
	return b.MemoryStore.Save(ctx, rec)
}

type failingStore struct{ *MemoryStore }

func (failingStore) Save(context.Context, game.HandRecord) error {
	return errors.New("disk on fire")
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	recs := playHands(t, "rec", 2)

	r := NewRecorder(zerolog.Nop(), NewMemoryStore(), RecorderConfig{})
	for _, rec := range recs {
		require.NoError(t, <-r.Record(rec))
	}
	got, err := r.List(context.Background(), "rec")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, <-r.Record(recs[0]), ErrClosed)
}

func TestRecorderNeverBlocks(t *testing.T) {
	t.Parallel()
	recs := playHands(t, "busy", 3)

	store := &blockingStore{
		MemoryStore: NewMemoryStore(),
		started:     make(chan struct{}, 3),
		release:     make(chan struct{}),
	}
	r := NewRecorder(zerolog.Nop(), store, RecorderConfig{QueueSize: 1})

	first := r.Record(recs[0])
	<-store.started
	second := r.Record(recs[1])
	assert.ErrorIs(t, <-r.Record(recs[2]), ErrQueueFull)

	close(store.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	require.NoError(t, r.Close())
}

func TestRecorderReportsFailures(t *testing.T) {
	t.Parallel()
	recs := playHands(t, "broken", 1)

	r := NewRecorder(zerolog.Nop(), failingStore{NewMemoryStore()}, RecorderConfig{})
	defer r.Close()
	assert.EqualError(t, <-r.Record(recs[0]), "disk on fire")
}
