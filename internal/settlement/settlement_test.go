package settlement

import (
	"context"
	"testing"

	"github.com/oif-labs/intentsolver/internal/types"
)

type fakeStrategy struct{ name string }

func (f fakeStrategy) Name() string { return f.name }
func (f fakeStrategy) CheckAttestation(ctx context.Context, order *types.Order, record *types.SettlementRecord) (*types.FillProof, error) {
	return nil, nil
}
func (f fakeStrategy) ClaimSettlement(ctx context.Context, order *types.Order, proof *types.FillProof) (*types.Transaction, error) {
	return nil, nil
}
func (f fakeStrategy) EstimateAttestationTime(order *types.Order) int64 { return 0 }
func (f fakeStrategy) IsClaimed(ctx context.Context, order *types.Order, record *types.SettlementRecord) (bool, error) {
	return false, nil
}

func TestRegistry_ForReturnsRegisteredStrategy(t *testing.T) {
	r := New()
	strat := fakeStrategy{name: "s1"}
	r.Register(types.StandardEIP7683, strat)

	got := r.For(types.StandardEIP7683)
	if got == nil || got.Name() != "s1" {
		t.Fatalf("For returned %v", got)
	}
}

func TestRegistry_ForUnregisteredStandardReturnsNil(t *testing.T) {
	r := New()
	if got := r.For("unregistered"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
