package storage

import (
	"encoding/binary"
	"encoding/json"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// key prefixes, mirroring the file backend's naming but as byte-slice keys
// in a single embedded KV namespace.
var (
	prefixOrder      = []byte("order/")
	prefixSettlement = []byte("settlement/")
	prefixCursor     = []byte("cursor/")
)

// KVStore is a Store backed by an embedded key-value database (goleveldb
// via cometbft-db), for operators who want durable, production-grade
// storage without standing up a separate database process.
type KVStore struct {
	db dbm.DB
}

// NewKVStore opens (creating if absent) a goleveldb database rooted at
// dir/name.
func NewKVStore(dir, name string) (*KVStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, solvererr.Configuration(err)
	}
	return &KVStore{db: db}, nil
}

func orderKeyBytes(id [32]byte) []byte      { return append(append([]byte{}, prefixOrder...), id[:]...) }
func settlementKeyBytes(id [32]byte) []byte { return append(append([]byte{}, prefixSettlement...), id[:]...) }
func cursorKeyBytes(name string) []byte     { return append(append([]byte{}, prefixCursor...), []byte(name)...) }

func (k *KVStore) StoreOrderState(state *types.OrderState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return k.db.SetSync(orderKeyBytes(state.ID), data)
}

func (k *KVStore) GetOrderState(id [32]byte) (*types.OrderState, error) {
	data, err := k.db.Get(orderKeyBytes(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, solvererr.NotFound
	}
	var s types.OrderState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (k *KVStore) DeleteOrderState(id [32]byte) error {
	return k.db.DeleteSync(orderKeyBytes(id))
}

func (k *KVStore) iterateOrders(fn func(*types.OrderState)) error {
	it, err := k.db.Iterator(prefixOrder, dbm.PrefixEndBytes(prefixOrder))
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		var s types.OrderState
		if err := json.Unmarshal(it.Value(), &s); err != nil {
			continue // malformed entry: skip, matches file backend's tolerance
		}
		fn(&s)
	}
	return it.Error()
}

func (k *KVStore) OrderStatesByStatus(status types.Status) ([]*types.OrderState, error) {
	var out []*types.OrderState
	err := k.iterateOrders(func(s *types.OrderState) {
		if s.Status == status {
			out = append(out, s)
		}
	})
	return out, err
}

func (k *KVStore) CountByStatus() (map[types.Status]int, error) {
	out := make(map[types.Status]int)
	err := k.iterateOrders(func(s *types.OrderState) { out[s.Status]++ })
	return out, err
}

func (k *KVStore) AllOrderStates() ([]*types.OrderState, error) {
	var out []*types.OrderState
	err := k.iterateOrders(func(s *types.OrderState) { out = append(out, s) })
	return out, err
}

func (k *KVStore) StoreSettlement(rec *types.SettlementRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return k.db.SetSync(settlementKeyBytes(rec.OrderID), data)
}

func (k *KVStore) GetSettlement(id [32]byte) (*types.SettlementRecord, error) {
	data, err := k.db.Get(settlementKeyBytes(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, solvererr.NotFound
	}
	var s types.SettlementRecord
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (k *KVStore) AllSettlements() ([]*types.SettlementRecord, error) {
	it, err := k.db.Iterator(prefixSettlement, dbm.PrefixEndBytes(prefixSettlement))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []*types.SettlementRecord
	for ; it.Valid(); it.Next() {
		var s types.SettlementRecord
		if err := json.Unmarshal(it.Value(), &s); err != nil {
			continue
		}
		out = append(out, &s)
	}
	return out, it.Error()
}

// StoreCursor persists a discovery source's last processed block height as
// a big-endian uint64, matching the teacher's SaveIntentLastBlock encoding.
func (k *KVStore) StoreCursor(sourceName string, height uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, height)
	return k.db.SetSync(cursorKeyBytes(sourceName), buf)
}

func (k *KVStore) LoadCursor(sourceName string) (uint64, bool, error) {
	data, err := k.db.Get(cursorKeyBytes(sourceName))
	if err != nil {
		return 0, false, err
	}
	if data == nil || len(data) != 8 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func (k *KVStore) Close() error { return k.db.Close() }

var _ Store = (*KVStore)(nil)
