package orchestrator

import (
	"time"

	"github.com/oif-labs/intentsolver/internal/state"
	"github.com/oif-labs/intentsolver/internal/types"
)

// computePriority classifies urgency from time-to-expiry and estimates a
// USD-equivalent value from the sum of an order's output amounts (no price
// oracle is in scope; this is the same "0 if unknown" degenerate case the
// formula already accounts for, applied as a raw-amount proxy rather than a
// true USD conversion).
func computePriority(order *types.Order, discoveredAt time.Time) int32 {
	remaining := order.ExpiresAt.Sub(discoveredAt)
	urgency := types.ClassifyUrgency(remaining)

	var value float64
	for _, out := range order.Outputs {
		value += float64(out.Amount)
	}

	return state.ComputePriority(urgency, value, discoveredAt, discoveredAt)
}
