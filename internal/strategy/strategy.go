// Package strategy implements the execution-strategy contract: a pure
// function of (order, context) deciding whether, and how, to fill an
// order. Strategies must be side-effect-free and deterministic given
// their input.
package strategy

import (
	"time"

	"github.com/oif-labs/intentsolver/internal/types"
)

// Decision is the tagged union Execute | Skip | Defer a Strategy returns.
type Decision struct {
	Kind       DecisionKind
	Params     types.ExecutionParams
	SkipReason string
	DeferFor   time.Duration
}

type DecisionKind int

const (
	DecisionExecute DecisionKind = iota
	DecisionSkip
	DecisionDefer
)

// Strategy decides whether the solver should execute, skip, or defer a
// fill given the order and a point-in-time context snapshot.
type Strategy interface {
	Name() string
	ShouldExecute(order *types.Order, ctx types.StrategyContext) Decision
}

// AlwaysExecute always fills at the context's current gas price.
type AlwaysExecute struct{}

func (AlwaysExecute) Name() string { return "always_execute" }

func (AlwaysExecute) ShouldExecute(order *types.Order, ctx types.StrategyContext) Decision {
	return Decision{Kind: DecisionExecute, Params: types.ExecutionParams{GasPrice: ctx.GasPrice}}
}

// GasCapped defers fills while gas is above MaxGasPrice, otherwise
// executes with a fixed 2 gwei priority fee.
type GasCapped struct {
	MaxGasPrice uint64
}

const gasCappedPriorityFeeWei = 2_000_000_000 // 2 gwei

func (g GasCapped) Name() string { return "gas_capped" }

func (g GasCapped) ShouldExecute(order *types.Order, ctx types.StrategyContext) Decision {
	if ctx.GasPrice > g.MaxGasPrice {
		return Decision{Kind: DecisionDefer, DeferFor: 60 * time.Second}
	}
	return Decision{
		Kind: DecisionExecute,
		Params: types.ExecutionParams{
			GasPrice:    ctx.GasPrice,
			PriorityFee: gasCappedPriorityFeeWei,
		},
	}
}
