package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/poker"
)

// Manager runs many sessions side by side. Sessions share nothing but the
// options they were created with; lookups go through the manager.
type Manager struct {
	opts []Option

	mu       sync.RWMutex
	sessions map[string]*Session
	group    *errgroup.Group
	groupCtx context.Context
}

// NewManager returns a manager whose sessions are built with opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

// Add creates a session for table. If the manager is already running the
// session starts immediately.
func (m *Manager) Add(table *game.Table, opts ...Option) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[table.ID]; exists {
		return nil, fmt.Errorf("table %s already exists", table.ID)
	}
	s := New(table, append(slices.Clone(m.opts), opts...)...)
	m.sessions[table.ID] = s
	if m.group != nil {
		m.start(s)
	}
	return s, nil
}

func (m *Manager) start(s *Session) {
	ctx := m.groupCtx
	m.group.Go(func() error {
		err := s.Run(ctx)
		m.mu.Lock()
		if m.sessions[s.ID()] == s {
			delete(m.sessions, s.ID())
		}
		m.mu.Unlock()
		return err
	})
}

// Run starts every session and blocks until ctx is cancelled and all of
// them have stopped. A session that fails cancels the rest.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	m.mu.Lock()
	m.group, m.groupCtx = g, gctx
	for _, s := range m.sessions {
		m.start(s)
	}
	m.mu.Unlock()

	// Keep the group alive for tables added later.
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// Get returns the session for a table id.
func (m *Manager) Get(tableID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrUnknownTable, tableID)
	}
	return s, nil
}

// Tables lists table ids in order.
func (m *Manager) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) Roster(tableID string) (game.Roster, error) {
	s, err := m.Get(tableID)
	if err != nil {
		return game.Roster{Players: []game.RosterEntry{}}, err
	}
	return s.Roster(), nil
}

func (m *Manager) History(ctx context.Context, tableID string) ([]game.HandRecord, error) {
	s, err := m.Get(tableID)
	if err != nil {
		return nil, err
	}
	return s.History(ctx)
}

func (m *Manager) Snapshot(tableID string, seat int) (Snapshot, error) {
	s, err := m.Get(tableID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(seat), nil
}

func (m *Manager) StartHand(ctx context.Context, tableID string) error {
	s, err := m.Get(tableID)
	if err != nil {
		return err
	}
	return s.StartHand(ctx)
}

func (m *Manager) SubmitAction(ctx context.Context, tableID string, a game.Action) error {
	s, err := m.Get(tableID)
	if err != nil {
		return err
	}
	return s.SubmitAction(ctx, a)
}

func (m *Manager) JoinSeat(ctx context.Context, tableID string, pos int, occ game.Occupant, chips int) error {
	s, err := m.Get(tableID)
	if err != nil {
		return err
	}
	return s.JoinSeat(ctx, pos, occ, chips)
}

func (m *Manager) LeaveSeat(ctx context.Context, tableID string, pos int) error {
	s, err := m.Get(tableID)
	if err != nil {
		return err
	}
	return s.LeaveSeat(ctx, pos)
}

func (m *Manager) Equity(ctx context.Context, tableID string, seat, sims int) (poker.EquityResult, error) {
	s, err := m.Get(tableID)
	if err != nil {
		return poker.EquityResult{}, err
	}
	return s.Equity(ctx, seat, sims)
}

// CloseTable shuts one table down between hands and forgets it.
func (m *Manager) CloseTable(ctx context.Context, tableID string) error {
	s, err := m.Get(tableID)
	if err != nil {
		return err
	}
	if err := s.Close(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	if m.sessions[tableID] == s {
		delete(m.sessions, tableID)
	}
	m.mu.Unlock()
	return nil
}
