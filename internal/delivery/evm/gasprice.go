package evm

import (
	"context"

	"github.com/oif-labs/intentsolver/internal/types"
)

// GasPrice implements orchestrator.GasPriceSource for a single Provider's
// chain via SuggestGasPrice.
func (p *Provider) GasPrice(ctx context.Context, chainID types.ChainID) (uint64, error) {
	price, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return 0, classifyNetErr(err)
	}
	return price.Uint64(), nil
}

// ChainGasSource multiplexes GasPrice across a set of providers keyed by
// chain ID.
type ChainGasSource struct {
	byChain map[types.ChainID]*Provider
}

// NewChainGasSource builds a ChainGasSource over byChain.
func NewChainGasSource(byChain map[types.ChainID]*Provider) *ChainGasSource {
	return &ChainGasSource{byChain: byChain}
}

func (c *ChainGasSource) GasPrice(ctx context.Context, chainID types.ChainID) (uint64, error) {
	p, ok := c.byChain[chainID]
	if !ok {
		return 0, errNoProviderForChain(chainID)
	}
	return p.GasPrice(ctx, chainID)
}

type noProviderErr struct{ chainID types.ChainID }

func (e noProviderErr) Error() string { return "evm: no provider configured for chain" }

func errNoProviderForChain(chainID types.ChainID) error { return noProviderErr{chainID: chainID} }
