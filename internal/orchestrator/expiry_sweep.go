package orchestrator

import (
	"context"
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

// expirySweepLoop periodically abandons any non-terminal order whose
// expires_at has passed, per the state machine's "any non-terminal ->
// Abandoned if expired" rule. An in-flight fill (Filling) is never
// preempted: the sweep only acts on orders currently idle in Discovered,
// Validating, Ready, Filled or Settling.
func (o *Orchestrator) expirySweepLoop(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweepExpired()
		}
	}
}

func (o *Orchestrator) sweepExpired() {
	all, err := o.state.ByStatus(types.StatusReady)
	if err != nil {
		o.log.Error().Err(err).Msg("failed to list ready orders for expiry sweep")
		return
	}
	for _, status := range []types.Status{types.StatusDiscovered, types.StatusValidating, types.StatusFilled, types.StatusSettling} {
		more, err := o.state.ByStatus(status)
		if err != nil {
			o.log.Error().Err(err).Msg("failed to list orders for expiry sweep")
			continue
		}
		all = append(all, more...)
	}

	for _, st := range all {
		order, err := o.registry.Parse(st.RawOrderData, "")
		if err != nil {
			continue // leave malformed records for the next pass; not our concern here
		}
		if order.ExpiresAt.After(now()) {
			continue
		}
		if st.Status == types.StatusFilled || st.Status == types.StatusSettling {
			if rec, err := o.state.GetSettlement(st.ID); err == nil {
				o.failSettlement(st, rec, "expired while awaiting settlement")
				continue
			}
		}
		o.abandon(st, "expired")
	}
}
