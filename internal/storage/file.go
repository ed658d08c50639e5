package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// FileStore persists one JSON file per key under base, atomically via a
// *.tmp write followed by rename, matching the persisted-state layout:
// order_{hex(order_id)}.json and settlement_{hex(order_id)}.json. Cursors
// are stored the same way under cursor_{name}.json.
//
// FileStore assumes a single logical writer per key (enforced upstream by
// the state manager's per-order serialization), so no cross-process
// locking is attempted here.
type FileStore struct {
	mu   sync.Mutex
	base string
}

// NewFileStore creates base if it does not exist and returns a FileStore
// rooted there.
func NewFileStore(base string) (*FileStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, solvererr.Configuration(err)
	}
	return &FileStore{base: base}, nil
}

func (f *FileStore) path(name string) string { return filepath.Join(f.base, name+".json") }

func (f *FileStore) writeAtomic(name string, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	final := f.path(name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

func (f *FileStore) read(name string, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return solvererr.NotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (f *FileStore) remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) StoreOrderState(state *types.OrderState) error {
	return f.writeAtomic(OrderKey(state.ID), state)
}

func (f *FileStore) GetOrderState(id [32]byte) (*types.OrderState, error) {
	var s types.OrderState
	if err := f.read(OrderKey(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *FileStore) DeleteOrderState(id [32]byte) error {
	return f.remove(OrderKey(id))
}

// AllOrderStates loads every order_*.json file, skipping unreadable or
// malformed ones without reporting them rather than failing the whole load.
func (f *FileStore) AllOrderStates() ([]*types.OrderState, error) {
	entries, err := os.ReadDir(f.base)
	if err != nil {
		return nil, err
	}
	var out []*types.OrderState
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "order_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var s types.OrderState
		f.mu.Lock()
		data, rerr := os.ReadFile(filepath.Join(f.base, name))
		f.mu.Unlock()
		if rerr != nil {
			continue
		}
		if err := json.Unmarshal(data, &s); err != nil {
			// malformed file: skipped, nothing is logged or returned for it
			continue
		}
		out = append(out, &s)
	}
	return out, nil
}

func (f *FileStore) OrderStatesByStatus(status types.Status) ([]*types.OrderState, error) {
	all, err := f.AllOrderStates()
	if err != nil {
		return nil, err
	}
	var out []*types.OrderState
	for _, s := range all {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *FileStore) CountByStatus() (map[types.Status]int, error) {
	all, err := f.AllOrderStates()
	if err != nil {
		return nil, err
	}
	out := make(map[types.Status]int)
	for _, s := range all {
		out[s.Status]++
	}
	return out, nil
}

func (f *FileStore) StoreSettlement(rec *types.SettlementRecord) error {
	return f.writeAtomic(SettlementKey(rec.OrderID), rec)
}

func (f *FileStore) GetSettlement(id [32]byte) (*types.SettlementRecord, error) {
	var s types.SettlementRecord
	if err := f.read(SettlementKey(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *FileStore) AllSettlements() ([]*types.SettlementRecord, error) {
	entries, err := os.ReadDir(f.base)
	if err != nil {
		return nil, err
	}
	var out []*types.SettlementRecord
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "settlement_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var s types.SettlementRecord
		f.mu.Lock()
		data, rerr := os.ReadFile(filepath.Join(f.base, name))
		f.mu.Unlock()
		if rerr != nil {
			continue
		}
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		out = append(out, &s)
	}
	return out, nil
}

func (f *FileStore) StoreCursor(sourceName string, height uint64) error {
	return f.writeAtomic("cursor_"+sourceName, struct{ Height uint64 }{height})
}

func (f *FileStore) LoadCursor(sourceName string) (uint64, bool, error) {
	var v struct{ Height uint64 }
	if err := f.read("cursor_"+sourceName, &v); err != nil {
		if err == solvererr.NotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return v.Height, true, nil
}

func (f *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
