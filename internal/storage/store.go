// Package storage implements the single storage contract the state
// manager depends on, behind three backends: an in-memory map, one
// JSON-file-per-key directory, and an embedded KV (cometbft-db). All three
// satisfy the same Store interface; the backend is a closed variant set
// selected once at construction from configuration, not an open registry.
package storage

import (
	"github.com/oif-labs/intentsolver/internal/types"
)

// OrderKey and SettlementKey format an order_id into the storage key space
// each backend uses. Keeping the formatting here (rather than per-backend)
// keeps the persisted-state layout in one place.
func OrderKey(id [32]byte) string      { return "order_" + hexID(id) }
func SettlementKey(id [32]byte) string { return "settlement_" + hexID(id) }

func hexID(id [32]byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range id {
		out[i*2] = hexdigits[b>>4]
		out[i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}

// Store is the uniform persistence contract. store is idempotent upsert;
// for file-backed implementations it must be durable (write-to-temp +
// rename) before returning.
type Store interface {
	StoreOrderState(state *types.OrderState) error
	GetOrderState(id [32]byte) (*types.OrderState, error)
	DeleteOrderState(id [32]byte) error
	OrderStatesByStatus(status types.Status) ([]*types.OrderState, error)
	CountByStatus() (map[types.Status]int, error)
	AllOrderStates() ([]*types.OrderState, error)

	StoreSettlement(rec *types.SettlementRecord) error
	GetSettlement(id [32]byte) (*types.SettlementRecord, error)
	AllSettlements() ([]*types.SettlementRecord, error)

	// StoreCursor/LoadCursor persist a discovery source's last processed
	// block height, keyed by source name, so restarts resume from where
	// they left off instead of the chain tip.
	StoreCursor(sourceName string, height uint64) error
	LoadCursor(sourceName string) (uint64, bool, error)

	Close() error
}
