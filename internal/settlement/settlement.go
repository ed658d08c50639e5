// Package settlement tracks a filled order from fill through claim:
// polling for attestation, submitting the claim transaction, and
// reporting terminal status.
package settlement

import (
	"context"

	"github.com/oif-labs/intentsolver/internal/types"
)

// Strategy is the per-order-standard settlement contract. Implementations
// are polymorphic over how attestation is obtained and how the claim
// transaction is shaped; the orchestrator drives the state transitions.
type Strategy interface {
	Name() string

	// CheckAttestation returns a FillProof once the origin chain's oracle
	// has attested the fill, or (nil, nil) if not yet available.
	CheckAttestation(ctx context.Context, order *types.Order, record *types.SettlementRecord) (*types.FillProof, error)

	// ClaimSettlement builds and returns the claim transaction for the
	// origin chain given a proof of fill.
	ClaimSettlement(ctx context.Context, order *types.Order, proof *types.FillProof) (*types.Transaction, error)

	// EstimateAttestationTime estimates how long attestation should take
	// for this order. The settlement sweeper polls at its own configured
	// interval and does not call it.
	EstimateAttestationTime(order *types.Order) int64 // seconds

	// IsClaimed reports whether the origin chain shows the claim as
	// already settled, independent of this solver's own record (covers
	// the case where another solver or a retry already completed it).
	IsClaimed(ctx context.Context, order *types.Order, record *types.SettlementRecord) (bool, error)
}

// Registry dispatches to a Strategy by the order standard it was
// registered for: a single lookup, with no fallback to other strategies.
type Registry struct {
	strategies map[types.OrderStandard]Strategy
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{strategies: make(map[types.OrderStandard]Strategy)}
}

// Register binds a Strategy to the standards it handles.
func (r *Registry) Register(standard types.OrderStandard, s Strategy) {
	r.strategies[standard] = s
}

// For returns the Strategy registered for standard, or nil.
func (r *Registry) For(standard types.OrderStandard) Strategy {
	return r.strategies[standard]
}
