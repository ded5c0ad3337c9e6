package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemtable/internal/game"
)

func TestManager(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	m := NewManager(WithSink(buf), WithSeed(9))
	_, err := m.Add(newTable(t, 2, humans(2)...))
	require.NoError(t, err)
	_, err = m.Add(newTable(t, 2, humans(2)...))
	assert.Error(t, err, "duplicate table ids are rejected")

	other, err := game.NewTable("t2", game.Config{Capacity: 4, Mode: game.ModeBlinds, SmallBlind: 1, BigBlind: 2, InitialChips: 100})
	require.NoError(t, err)
	_, err = m.Add(other)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, m.Tables())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	_, err = m.Roster("nope")
	assert.ErrorIs(t, err, game.ErrUnknownTable)
	assert.ErrorIs(t, m.StartHand(ctx, "nope"), game.ErrUnknownTable)

	require.NoError(t, m.StartHand(ctx, "t1"))
	assert.ErrorIs(t, m.StartHand(ctx, "t2"), game.ErrInsufficientPlayers)
	require.NoError(t, m.JoinSeat(ctx, "t2", 3, game.Occupant{ID: "late", Name: "late"}, 0))

	snap, err := m.Snapshot("t1", 0)
	require.NoError(t, err)
	assert.Equal(t, StageInHand, snap.Stage)
	require.NoError(t, m.SubmitAction(ctx, "t1", game.Action{Seat: 0, Kind: game.Fold}))

	require.Eventually(t, func() bool {
		records, err := m.History(ctx, "t1")
		return err == nil && len(records) == 1
	}, eventWait, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return m.CloseTable(ctx, "t1") == nil
	}, eventWait, 5*time.Millisecond)
	assert.Equal(t, []string{"t2"}, m.Tables())

	for _, e := range buf.Events() {
		assert.Equal(t, "t1", e.TableID)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(eventWait):
		t.Fatal("manager did not stop")
	}
}

func TestManagerAddWhileRunning(t *testing.T) {
	t.Parallel()

	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.group != nil
	}, eventWait, time.Millisecond)

	_, err := m.Add(newTable(t, 2, humans(2)...))
	require.NoError(t, err)
	require.NoError(t, m.StartHand(ctx, "t1"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(eventWait):
		t.Fatal("manager did not stop")
	}
	assert.Empty(t, m.Tables())
}
