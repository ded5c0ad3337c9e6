package history

import (
	"context"
	"slices"
	"sync"

	"github.com/lox/holdemtable/internal/game"
)

// MemoryStore keeps records in process. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	byTable map[string][]game.HandRecord
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byTable: make(map[string][]game.HandRecord)}
}

func (m *MemoryStore) Save(_ context.Context, rec game.HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	recs := m.byTable[rec.TableID]
	if i := slices.IndexFunc(recs, func(r game.HandRecord) bool { return r.ID == rec.ID }); i >= 0 {
		recs = slices.Delete(recs, i, i+1)
	}
	i, _ := slices.BinarySearchFunc(recs, rec, compareRecords)
	m.byTable[rec.TableID] = slices.Insert(recs, i, rec)
	return nil
}

func (m *MemoryStore) LastHandNumber(_ context.Context, tableID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	recs := m.byTable[tableID]
	if len(recs) == 0 {
		return 0, nil
	}
	return recs[len(recs)-1].HandNumber, nil
}

func (m *MemoryStore) List(_ context.Context, tableID string) ([]game.HandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return slices.Clone(m.byTable[tableID]), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
