package storage

import (
	"sync"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// MemoryStore is a mutex-guarded in-memory Store, used for tests and
// ephemeral runs where durability across restarts is not required.
type MemoryStore struct {
	mu          sync.RWMutex
	orders      map[[32]byte]*types.OrderState
	settlements map[[32]byte]*types.SettlementRecord
	cursors     map[string]uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:      make(map[[32]byte]*types.OrderState),
		settlements: make(map[[32]byte]*types.SettlementRecord),
		cursors:     make(map[string]uint64),
	}
}

func (m *MemoryStore) StoreOrderState(state *types.OrderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[state.ID] = state.Clone()
	return nil
}

func (m *MemoryStore) GetOrderState(id [32]byte) (*types.OrderState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.orders[id]
	if !ok {
		return nil, solvererr.NotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) DeleteOrderState(id [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *MemoryStore) OrderStatesByStatus(status types.Status) ([]*types.OrderState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.OrderState
	for _, s := range m.orders {
		if s.Status == status {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) CountByStatus() (map[types.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[types.Status]int)
	for _, s := range m.orders {
		out[s.Status]++
	}
	return out, nil
}

func (m *MemoryStore) AllOrderStates() ([]*types.OrderState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.OrderState, 0, len(m.orders))
	for _, s := range m.orders {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (m *MemoryStore) StoreSettlement(rec *types.SettlementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.settlements[rec.OrderID] = &cp
	return nil
}

func (m *MemoryStore) GetSettlement(id [32]byte) (*types.SettlementRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settlements[id]
	if !ok {
		return nil, solvererr.NotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) AllSettlements() ([]*types.SettlementRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.SettlementRecord, 0, len(m.settlements))
	for _, s := range m.settlements {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) StoreCursor(sourceName string, height uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[sourceName] = height
	return nil
}

func (m *MemoryStore) LoadCursor(sourceName string) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.cursors[sourceName]
	return h, ok, nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
