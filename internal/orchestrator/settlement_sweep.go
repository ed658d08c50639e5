package orchestrator

import (
	"context"
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

// settlementSweepLoop periodically drives every non-terminal settlement
// record forward: polling for attestation, then building and submitting
// the claim transaction once a proof is available.
func (o *Orchestrator) settlementSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.SettlementPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweepSettlements(ctx)
		}
	}
}

func (o *Orchestrator) sweepSettlements(ctx context.Context) {
	records, err := o.state.AllSettlements()
	if err != nil {
		o.log.Error().Err(err).Msg("failed to list settlement records")
		return
	}
	for _, rec := range records {
		switch rec.Status {
		case types.SettlementCompleted, types.SettlementFailed:
			continue
		}
		o.sweepOne(ctx, rec)
	}
}

func (o *Orchestrator) sweepOne(ctx context.Context, rec *types.SettlementRecord) {
	st, err := o.state.GetState(rec.OrderID)
	if err != nil {
		o.log.Error().Err(err).Msg("failed to load order state for settlement sweep")
		return
	}

	order, err := o.registry.Parse(st.RawOrderData, "")
	if err != nil {
		o.failSettlement(st, rec, "reparse failed: "+err.Error())
		return
	}

	strat := o.settlements.For(order.Standard)
	if strat == nil {
		o.failSettlement(st, rec, "no settlement strategy registered for standard "+string(order.Standard))
		return
	}

	if st.Status == types.StatusFilled {
		st.Status = types.StatusSettling
		if err := o.state.StoreState(st); err != nil {
			o.log.Error().Err(err).Msg("failed to persist settling order state")
			return
		}
	}

	if rec.Status == types.SettlementAwaitingAttestation {
		claimed, err := strat.IsClaimed(ctx, order, rec)
		if err == nil && claimed {
			o.completeSettlement(st, rec)
			return
		}

		proof, err := strat.CheckAttestation(ctx, order, rec)
		if err != nil {
			o.retrySettlementOrFail(st, rec, "check attestation: "+err.Error())
			return
		}
		if proof == nil {
			return // not yet attested; try again next sweep
		}
		rec.Status = types.SettlementReadyToClaim
		rec.ProofData = proof.AttestationBytes
		if err := o.state.StoreSettlement(rec); err != nil {
			o.log.Error().Err(err).Msg("failed to persist ready-to-claim settlement")
			return
		}
		o.publish(types.Event{Kind: types.EventProofReady, OrderID: order.OrderID, Proof: proof})
	}

	if rec.Status != types.SettlementReadyToClaim {
		return
	}

	proof := &types.FillProof{FillTx: rec.FillTx, AttestationBytes: rec.ProofData}
	tx, err := strat.ClaimSettlement(ctx, order, proof)
	if err != nil {
		o.retrySettlementOrFail(st, rec, "build claim tx: "+err.Error())
		return
	}

	svc, ok := o.deliveryByChain[order.OriginChain]
	if !ok {
		o.failSettlement(st, rec, "no delivery service configured for origin chain")
		return
	}

	rec.Status = types.SettlementClaiming
	if err := o.state.StoreSettlement(rec); err != nil {
		o.log.Error().Err(err).Msg("failed to persist claiming settlement")
		return
	}

	providerName, txHash, err := svc.Submit(ctx, tx, reservationKey(order.OrderID, "claim"))
	if err != nil {
		o.publish(types.Event{Kind: types.EventTxFailed, OrderID: order.OrderID, TxErr: err.Error(), TxType: types.TxKindClaim})
		o.retrySettlementOrFail(st, rec, "submit claim: "+err.Error())
		return
	}
	rec.ClaimTx = txHash
	rec.ClaimSubmittedAt = ptrTime(now())
	_ = o.state.StoreSettlement(rec)
	o.publish(types.Event{Kind: types.EventTxPending, OrderID: order.OrderID, TxHash: txHash, TxType: types.TxKindClaim})

	receipt, err := svc.WaitForConfirmation(ctx, providerName, txHash, o.cfg.Confirmations)
	if err != nil {
		o.retrySettlementOrFail(st, rec, "wait for claim confirmation: "+err.Error())
		return
	}
	if !receipt.Status {
		o.publish(types.Event{Kind: types.EventTxFailed, OrderID: order.OrderID, TxHash: txHash, TxType: types.TxKindClaim})
		o.retrySettlementOrFail(st, rec, "claim transaction reverted")
		return
	}
	o.publish(types.Event{Kind: types.EventTxConfirmed, OrderID: order.OrderID, Receipt: receipt, TxType: types.TxKindClaim})
	o.completeSettlement(st, rec)
}

func (o *Orchestrator) completeSettlement(st *types.OrderState, rec *types.SettlementRecord) {
	rec.Status = types.SettlementCompleted
	_ = o.state.StoreSettlement(rec)

	st.Status = types.StatusSettled
	st.CompletedAt = ptrTime(now())
	_ = o.state.StoreState(st)

	o.publish(types.Event{Kind: types.EventClaimReady, OrderID: st.ID, TxHash: rec.ClaimTx})
	o.publish(types.Event{Kind: types.EventCompleted, OrderID: st.ID})
}

func (o *Orchestrator) retrySettlementOrFail(st *types.OrderState, rec *types.SettlementRecord, reason string) {
	rec.Attempts++
	rec.FailReason = reason
	if rec.Attempts >= o.cfg.MaxAttempts {
		rec.Retryable = false
		o.failSettlement(st, rec, reason)
		return
	}
	rec.Retryable = true
	if rec.Status == types.SettlementClaiming {
		rec.Status = types.SettlementReadyToClaim
	}
	_ = o.state.StoreSettlement(rec)
}

func (o *Orchestrator) failSettlement(st *types.OrderState, rec *types.SettlementRecord, reason string) {
	rec.Status = types.SettlementFailed
	rec.FailReason = reason
	rec.Retryable = false
	_ = o.state.StoreSettlement(rec)

	st.Status = types.StatusAbandoned
	st.LastError = reason
	st.CompletedAt = ptrTime(now())
	o.state.RemoveFromQueue(st.ID)
	_ = o.state.StoreState(st)

	o.publish(types.Event{Kind: types.EventCompleted, OrderID: st.ID, SkipReason: reason})
}
