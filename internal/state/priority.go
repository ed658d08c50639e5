package state

import (
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

// ComputePriority implements score = 50 + urgency + value + age exactly as
// specified: urgency in {+10 High, 0 Normal, -10 Low}; value in {+15 >1e6,
// +10 >1e5, +5 >1e4, 0 otherwise} (USD-equivalent estimate, 0 if unknown);
// age in {+10 >3600s, +5 >1800s, +2 >600s, 0 otherwise} where age is
// now - discoveredAt.
func ComputePriority(urgency types.Urgency, usdValue float64, discoveredAt, now time.Time) int32 {
	var score int32 = 50

	switch urgency {
	case types.UrgencyHigh:
		score += 10
	case types.UrgencyLow:
		score -= 10
	}

	switch {
	case usdValue > 1e6:
		score += 15
	case usdValue > 1e5:
		score += 10
	case usdValue > 1e4:
		score += 5
	}

	age := now.Sub(discoveredAt)
	switch {
	case age > time.Hour:
		score += 10
	case age > 30*time.Minute:
		score += 5
	case age > 10*time.Minute:
		score += 2
	}

	return score
}
