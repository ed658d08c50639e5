package state

import (
	"time"

	"github.com/oif-labs/intentsolver/internal/eventbus"
	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/storage"
	"github.com/oif-labs/intentsolver/internal/types"
)

// Manager is the single logical owner of every OrderState mutation and of
// the coupled SettlementRecord for an order. It composes a durable Store
// with an in-memory PriorityQueue that is a scheduling index only — never
// a store of truth. Concurrency: the Store handles its own internal
// locking; the queue has its own mutex. Callers
// must still honor the per-order serialization rule described in the
// concurrency model: an order is removed from the queue before work
// begins, and only re-queued after its state transition commits.
type Manager struct {
	store storage.Store
	queue *PriorityQueue
	bus   *eventbus.Bus
}

// New wires a Manager around store and queue. bus may be nil if the caller
// does not want state transitions to also publish; the orchestrator is
// expected to publish events itself at the points named in §6, so Manager
// does not publish on Store/GetNextOrder by default.
func New(store storage.Store, queue *PriorityQueue, bus *eventbus.Bus) *Manager {
	return &Manager{store: store, queue: queue, bus: bus}
}

// StoreState persists state. Idempotent upsert.
func (m *Manager) StoreState(state *types.OrderState) error {
	return m.store.StoreOrderState(state)
}

// GetState loads a snapshot; mutate the returned copy and call StoreState
// to persist, never mutate in place across goroutines.
func (m *Manager) GetState(id [32]byte) (*types.OrderState, error) {
	return m.store.GetOrderState(id)
}

// Enqueue pushes id at priority onto the scheduling queue. Returns
// solvererr.QueueFull if the queue is at capacity.
func (m *Manager) Enqueue(id [32]byte, priority int32) error {
	return m.queue.Push(id, priority)
}

// GetNextOrder pops the highest-priority order_id, loads its persisted
// state, and returns both. The id is removed from the queue as part of
// this call, enforcing single-active-worker-per-order: callers must
// re-enqueue only after their own state transition commits.
func (m *Manager) GetNextOrder() (*types.OrderState, bool, error) {
	id, ok := m.queue.Pop()
	if !ok {
		return nil, false, nil
	}
	st, err := m.store.GetOrderState(id)
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}

// RemoveFromQueue deletes id from the scheduling queue if present. Callers
// that terminate a Ready order outside the normal GetNextOrder dequeue
// path (e.g. the expiry sweeper abandoning it) must call this so the
// queue does not keep a stale entry for an order that is now terminal.
func (m *Manager) RemoveFromQueue(id [32]byte) {
	m.queue.Remove(id)
}

// ByStatus exposes the storage contract's by_status query.
func (m *Manager) ByStatus(status types.Status) ([]*types.OrderState, error) {
	return m.store.OrderStatesByStatus(status)
}

// CountByStatus exposes the storage contract's count_by_status query.
func (m *Manager) CountByStatus() (map[types.Status]int, error) {
	return m.store.CountByStatus()
}

// StoreSettlement persists a settlement record, coupled to the OrderState
// of the same order_id.
func (m *Manager) StoreSettlement(rec *types.SettlementRecord) error {
	return m.store.StoreSettlement(rec)
}

// GetSettlement loads a settlement record snapshot.
func (m *Manager) GetSettlement(id [32]byte) (*types.SettlementRecord, error) {
	return m.store.GetSettlement(id)
}

// AllSettlements returns every settlement record, terminal or not, for the
// settlement sweeper to filter.
func (m *Manager) AllSettlements() ([]*types.SettlementRecord, error) {
	return m.store.AllSettlements()
}

// StoreCursor/LoadCursor delegate to the underlying Store for discovery
// source cursor persistence.
func (m *Manager) StoreCursor(sourceName string, height uint64) error {
	return m.store.StoreCursor(sourceName, height)
}

func (m *Manager) LoadCursor(sourceName string) (uint64, bool, error) {
	return m.store.LoadCursor(sourceName)
}

// Recover re-hydrates the queue on startup: every persisted OrderState with
// status Ready or Discovered is pushed back with its stored priority.
// Orders found in Filling at crash time are treated as Ready (the crash
// happened mid-execution; delivery is responsible for idempotent re-
// execution via nonce reuse) and are persisted back to Ready before being
// enqueued. Returns the number of orders re-enqueued.
func (m *Manager) Recover() (int, error) {
	all, err := m.store.AllOrderStates()
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, st := range all {
		switch st.Status {
		case types.StatusReady, types.StatusDiscovered:
			if err := m.queue.Push(st.ID, st.Priority); err != nil {
				if err == solvererr.QueueFull {
					continue
				}
				return recovered, err
			}
			recovered++
		case types.StatusFilling:
			st.Status = types.StatusReady
			if err := m.store.StoreOrderState(st); err != nil {
				return recovered, err
			}
			if err := m.queue.Push(st.ID, st.Priority); err != nil {
				if err == solvererr.QueueFull {
					continue
				}
				return recovered, err
			}
			recovered++
		}
	}
	return recovered, nil
}

// Cleanup removes terminal records whose CompletedAt is older than
// now - maxAge. Safe to run concurrently with normal operation since
// non-terminal records are never touched.
func (m *Manager) Cleanup(maxAge time.Duration) (int, error) {
	all, err := m.store.AllOrderStates()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, st := range all {
		if !st.Status.IsTerminal() || st.CompletedAt == nil {
			continue
		}
		if st.CompletedAt.Before(cutoff) {
			if err := m.store.DeleteOrderState(st.ID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// QueueLen reports the current scheduling queue depth.
func (m *Manager) QueueLen() int { return m.queue.Len() }

// Close flushes and releases the underlying store.
func (m *Manager) Close() error { return m.store.Close() }
