package orchestrator

import (
	"context"

	"github.com/oif-labs/intentsolver/internal/discovery"
	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

// ingestLoop drains the discovery multiplexer and turns each RawIntent into
// a parsed, validated, enqueued OrderState, or a terminal Invalid record.
func (o *Orchestrator) ingestLoop(ctx context.Context, intents <-chan discovery.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-intents:
			if !ok {
				return
			}
			switch ev.Kind {
			case discovery.EventError:
				o.log.Warn().Err(ev.Err).Msg("discovery source error")
			case discovery.EventIntent:
				o.ingestOne(ev.Intent)
			}
		}
	}
}

func (o *Orchestrator) ingestOne(raw discovery.RawIntent) {
	order, err := o.registry.Parse(raw.Bytes, raw.Hint)
	if err != nil {
		o.log.Warn().Err(err).Str("source", raw.SourceTag).Msg("failed to parse intent")
		o.publish(types.Event{Kind: types.EventIntentRejected, RawIntentSourceTag: raw.SourceTag, RejectReason: err.Error()})
		return
	}

	discoveredAt := now()
	st := &types.OrderState{
		ID:           order.OrderID,
		RawOrderData: raw.Bytes,
		Status:       types.StatusDiscovered,
		DiscoveredAt: discoveredAt,
	}
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist discovered order state")
		return
	}
	o.publish(types.Event{Kind: types.EventIntentDiscovered, OrderID: order.OrderID, Order: order, RawIntentSourceTag: raw.SourceTag})

	st.Status = types.StatusValidating
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist validating order state")
		return
	}

	if err := order.Validate(); err != nil {
		st.Status = types.StatusInvalid
		st.LastError = err.Error()
		st.CompletedAt = ptrTime(now())
		_ = o.state.StoreState(st)
		o.publish(types.Event{Kind: types.EventIntentRejected, OrderID: order.OrderID, RejectReason: err.Error()})
		return
	}

	priority := computePriority(order, discoveredAt)
	st.Status = types.StatusReady
	st.Priority = priority
	st.QueuedAt = ptrTime(now())
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist ready order state")
		return
	}
	if err := o.state.Enqueue(order.OrderID, priority); err != nil {
		o.log.Warn().Err(err).Msg("failed to enqueue ready order")
		reason := err.Error()
		if err == solvererr.QueueFull {
			reason = "overload"
		}
		st.Status = types.StatusInvalid
		st.LastError = reason
		st.CompletedAt = ptrTime(now())
		_ = o.state.StoreState(st)
		o.publish(types.Event{Kind: types.EventIntentRejected, OrderID: order.OrderID, RejectReason: reason})
		return
	}
	o.publish(types.Event{Kind: types.EventIntentValidated, OrderID: order.OrderID, Order: order})
}
