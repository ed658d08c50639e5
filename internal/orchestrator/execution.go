package orchestrator

import (
	"context"
	"time"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/strategy"
	"github.com/oif-labs/intentsolver/internal/types"
)

const workerIdleDelay = 250 * time.Millisecond

// executionWorker is one of N cooperating workers pulling the next
// highest-priority Ready order off the queue, deciding via the configured
// strategy, and driving it through Filling to Filled (or Abandoned/Retry).
func (o *Orchestrator) executionWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		st, ok, err := o.state.GetNextOrder()
		if err != nil {
			o.log.Error().Err(err).Int("worker", id).Msg("failed to pop next order")
			time.Sleep(workerIdleDelay)
			continue
		}
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(workerIdleDelay):
			}
			continue
		}

		o.executeOne(ctx, st)
	}
}

func (o *Orchestrator) executeOne(ctx context.Context, st *types.OrderState) {
	order, err := o.registry.Parse(st.RawOrderData, "")
	if err != nil {
		o.abandon(st, "reparse failed: "+err.Error())
		return
	}

	if !order.ExpiresAt.After(now()) {
		o.abandon(st, "expired before execution")
		return
	}

	st.Status = types.StatusFilling
	st.ProcessedAt = ptrTime(now())
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist filling order state")
		return
	}

	destChain := order.OriginChain
	if len(order.DestinationChains) > 0 {
		destChain = order.DestinationChains[0]
	}

	gasPrice, err := o.gasSource.GasPrice(ctx, destChain)
	if err != nil {
		o.retryOrAbandon(st, "gas price lookup failed: "+err.Error())
		return
	}

	decision := o.strat.ShouldExecute(order, types.StrategyContext{GasPrice: gasPrice, Timestamp: now()})
	switch decision.Kind {
	case strategy.DecisionSkip:
		o.abandon(st, "skipped: "+decision.SkipReason)
		o.publish(types.Event{Kind: types.EventSkipped, OrderID: order.OrderID, SkipReason: decision.SkipReason})
		return
	case strategy.DecisionDefer:
		o.deferOrder(st, decision.DeferFor)
		o.publish(types.Event{Kind: types.EventDeferred, OrderID: order.OrderID, RetryAfterS: int64(decision.DeferFor.Seconds())})
		return
	}

	factory, ok := o.registry.FactoryFor(order.Standard)
	if !ok {
		o.abandon(st, "no factory registered for standard "+string(order.Standard))
		return
	}
	tx, err := factory.GenerateFillTransaction(order, decision.Params)
	if err != nil {
		o.retryOrAbandon(st, "generate fill tx: "+err.Error())
		return
	}

	svc, ok := o.deliveryByChain[destChain]
	if !ok {
		o.abandon(st, "no delivery service configured for destination chain")
		return
	}

	o.publish(types.Event{Kind: types.EventExecuting, OrderID: order.OrderID, Params: &decision.Params})

	providerName, txHash, err := svc.Submit(ctx, tx, reservationKey(order.OrderID, "fill"))
	if err != nil {
		o.publish(types.Event{Kind: types.EventTxFailed, OrderID: order.OrderID, TxErr: err.Error(), TxType: types.TxKindFill})
		o.retryOrAbandon(st, "submit fill: "+err.Error())
		return
	}
	o.publish(types.Event{Kind: types.EventTxPending, OrderID: order.OrderID, TxHash: txHash, TxType: types.TxKindFill})

	receipt, err := svc.WaitForConfirmation(ctx, providerName, txHash, o.cfg.Confirmations)
	if err != nil {
		o.retryOrAbandon(st, "wait for confirmation: "+err.Error())
		return
	}
	if !receipt.Status {
		o.publish(types.Event{Kind: types.EventTxFailed, OrderID: order.OrderID, TxHash: txHash, TxType: types.TxKindFill})
		o.retryOrAbandon(st, "fill transaction reverted")
		return
	}
	o.publish(types.Event{Kind: types.EventTxConfirmed, OrderID: order.OrderID, Receipt: receipt, TxType: types.TxKindFill})

	st.Status = types.StatusFilled
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist filled order state")
		return
	}

	rec := &types.SettlementRecord{
		OrderID:          order.OrderID,
		OriginChain:      order.OriginChain,
		DestinationChain: destChain,
		FillTx:           txHash,
		FillTimestamp:    now(),
		Status:           types.SettlementAwaitingAttestation,
	}
	if err := o.state.StoreSettlement(rec); err != nil {
		o.log.Error().Err(err).Msg("failed to persist settlement record")
		return
	}
	o.publish(types.Event{Kind: types.EventFillDetected, OrderID: order.OrderID, TxHash: txHash})
}

// retryOrAbandon increments the attempt counter and either re-enqueues the
// order as Ready (Retry transition) or abandons it once max_attempts is
// exhausted.
func (o *Orchestrator) retryOrAbandon(st *types.OrderState, reason string) {
	st.Attempts++
	st.LastError = reason
	if st.Attempts >= o.cfg.MaxAttempts {
		o.abandon(st, reason)
		return
	}
	st.Status = types.StatusReady
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist retry order state")
		return
	}
	if err := o.state.Enqueue(st.ID, st.Priority); err != nil {
		o.log.Warn().Err(err).Msg("failed to re-enqueue retried order")
	}
}

// deferOrder re-enqueues the order after the strategy's requested delay
// without counting against the retry budget.
func (o *Orchestrator) deferOrder(st *types.OrderState, delay time.Duration) {
	st.Status = types.StatusReady
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist deferred order state")
		return
	}
	id, priority := st.ID, st.Priority
	go func() {
		time.Sleep(delay)
		if err := o.state.Enqueue(id, priority); err != nil && err != solvererr.QueueFull {
			o.log.Warn().Err(err).Msg("failed to re-enqueue deferred order")
		}
	}()
}

// abandon marks st terminally Abandoned. The order may still be sitting
// in the scheduling queue (e.g. the expiry sweeper abandoning a Ready
// order outside the normal GetNextOrder dequeue path), so it is always
// removed here too; a no-op if it was never queued or already popped.
func (o *Orchestrator) abandon(st *types.OrderState, reason string) {
	st.Status = types.StatusAbandoned
	st.LastError = reason
	st.CompletedAt = ptrTime(now())
	o.state.RemoveFromQueue(st.ID)
	if err := o.state.StoreState(st); err != nil {
		o.log.Error().Err(err).Msg("failed to persist abandoned order state")
		return
	}
	o.publish(types.Event{Kind: types.EventCompleted, OrderID: st.ID, SkipReason: reason})
}
