package orchestrator

import (
	"testing"
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

func TestComputePriority_UrgentSoonToExpireOrderScoresHigher(t *testing.T) {
	discoveredAt := time.Now()
	urgent := &types.Order{ExpiresAt: discoveredAt.Add(30 * time.Second)}
	relaxed := &types.Order{ExpiresAt: discoveredAt.Add(time.Hour)}

	pUrgent := computePriority(urgent, discoveredAt)
	pRelaxed := computePriority(relaxed, discoveredAt)

	if pUrgent <= pRelaxed {
		t.Fatalf("urgent priority %d, relaxed priority %d; want urgent > relaxed", pUrgent, pRelaxed)
	}
}

func TestComputePriority_ValueIsSumOfOutputAmounts(t *testing.T) {
	discoveredAt := time.Now()
	lowValue := &types.Order{
		ExpiresAt: discoveredAt.Add(time.Hour),
		Outputs:   []types.Output{{Amount: 100}},
	}
	highValue := &types.Order{
		ExpiresAt: discoveredAt.Add(time.Hour),
		Outputs:   []types.Output{{Amount: 900_000}, {Amount: 200_000}},
	}

	if got := computePriority(highValue, discoveredAt); got <= computePriority(lowValue, discoveredAt) {
		t.Fatalf("high-value priority %d, low-value priority %d; want high > low", got, computePriority(lowValue, discoveredAt))
	}
}

func TestComputePriority_NoExpiryBufferIsHighUrgency(t *testing.T) {
	discoveredAt := time.Now()
	order := &types.Order{ExpiresAt: discoveredAt}
	if got := computePriority(order, discoveredAt); got != 50+10 {
		t.Fatalf("computePriority = %d, want 60 for zero-remaining (high urgency, no value, no age)", got)
	}
}
