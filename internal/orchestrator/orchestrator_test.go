package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/oif-labs/intentsolver/internal/delivery"
	"github.com/oif-labs/intentsolver/internal/eventbus"
	"github.com/oif-labs/intentsolver/internal/lifecycle"
	"github.com/oif-labs/intentsolver/internal/orderregistry"
	"github.com/oif-labs/intentsolver/internal/settlement"
	"github.com/oif-labs/intentsolver/internal/state"
	"github.com/oif-labs/intentsolver/internal/storage"
	"github.com/oif-labs/intentsolver/internal/strategy"
	"github.com/oif-labs/intentsolver/internal/types"
)

// fakeFactory is a controllable orderregistry.Factory used to drive the
// orchestrator's ingest/execute/settlement paths without a real codec.
type fakeFactory struct {
	std         types.OrderStandard
	parseOrder  *types.Order
	parseErr    error
	validateErr error
	fillTx      *types.Transaction
	fillErr     error
	claimTx     *types.Transaction
	claimErr    error
}

func (f *fakeFactory) Standard() types.OrderStandard { return f.std }
func (f *fakeFactory) EventSignatures() [][32]byte   { return nil }
func (f *fakeFactory) ValidateFormat([]byte) error   { return f.validateErr }
func (f *fakeFactory) Parse([]byte) (*types.Order, error) {
	return f.parseOrder, f.parseErr
}
func (f *fakeFactory) ToFillInstructions(*types.Order) ([]types.FillInstruction, error) {
	return nil, nil
}
func (f *fakeFactory) GenerateFillTransaction(*types.Order, types.ExecutionParams) (*types.Transaction, error) {
	return f.fillTx, f.fillErr
}
func (f *fakeFactory) GenerateClaimTransaction(*types.Order, *types.FillProof) (*types.Transaction, error) {
	return f.claimTx, f.claimErr
}

// fakeProvider is a controllable delivery.Provider.
type fakeProvider struct {
	name       string
	submitHash string
	submitErr  error
	receipt    *types.Receipt
	confirmErr error
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Submit(ctx context.Context, tx *types.Transaction, reservationKey string) (string, error) {
	return p.submitHash, p.submitErr
}
func (p *fakeProvider) WaitForConfirmation(ctx context.Context, txHash string, confirmations int) (*types.Receipt, error) {
	return p.receipt, p.confirmErr
}
func (p *fakeProvider) GetReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	return p.receipt, p.confirmErr
}

// fakeGasSource is a controllable GasPriceSource.
type fakeGasSource struct {
	price uint64
	err   error
}

func (g fakeGasSource) GasPrice(ctx context.Context, chainID types.ChainID) (uint64, error) {
	return g.price, g.err
}

// fakeStrategy is a controllable strategy.Strategy.
type fakeStrategy struct {
	decision strategy.Decision
}

func (f fakeStrategy) Name() string { return "fake" }
func (f fakeStrategy) ShouldExecute(order *types.Order, ctx types.StrategyContext) strategy.Decision {
	return f.decision
}

// fakeSettlementStrategy is a controllable settlement.Strategy.
type fakeSettlementStrategy struct {
	claimed    bool
	claimedErr error
	proof      *types.FillProof
	attestErr  error
	claimTx    *types.Transaction
	claimErr   error
}

func (f *fakeSettlementStrategy) Name() string { return "fake-settlement" }
func (f *fakeSettlementStrategy) CheckAttestation(ctx context.Context, order *types.Order, record *types.SettlementRecord) (*types.FillProof, error) {
	return f.proof, f.attestErr
}
func (f *fakeSettlementStrategy) ClaimSettlement(ctx context.Context, order *types.Order, proof *types.FillProof) (*types.Transaction, error) {
	return f.claimTx, f.claimErr
}
func (f *fakeSettlementStrategy) EstimateAttestationTime(order *types.Order) int64 { return 0 }
func (f *fakeSettlementStrategy) IsClaimed(ctx context.Context, order *types.Order, record *types.SettlementRecord) (bool, error) {
	return f.claimed, f.claimedErr
}

// testRig bundles a freshly wired Orchestrator and its in-memory
// collaborators for black-box testing of the ingest/execute/sweep paths.
type testRig struct {
	o     *Orchestrator
	state *state.Manager
	bus   *eventbus.Bus
}

func newTestRig(factory orderregistry.Factory, strat strategy.Strategy, gasSource GasPriceSource, deliveryByChain map[types.ChainID]*delivery.Service, settlements *settlement.Registry) *testRig {
	registry := orderregistry.New()
	if factory != nil {
		registry.Register(factory)
	}
	bus := eventbus.New(64)
	stateMgr := state.New(storage.NewMemoryStore(), state.NewPriorityQueue(100), bus)
	lc := lifecycle.New()
	if settlements == nil {
		settlements = settlement.New()
	}
	if deliveryByChain == nil {
		deliveryByChain = map[types.ChainID]*delivery.Service{}
	}

	o := New(Config{}, registry, stateMgr, bus, lc, nil, strat, gasSource, deliveryByChain, settlements, zerolog.Nop())
	return &testRig{o: o, state: stateMgr, bus: bus}
}

func validOrder(id byte, standard types.OrderStandard, expiresIn time.Duration) *types.Order {
	oid := [32]byte{}
	oid[0] = id
	return &types.Order{
		OrderID:           oid,
		Standard:          standard,
		OriginChain:       1,
		DestinationChains: []types.ChainID{2},
		CreatedAt:         time.Now(),
		ExpiresAt:         time.Now().Add(expiresIn),
		User:              "0xuser",
		Inputs:            []types.TokenAmount{{Token: "0xin", Amount: 1000}},
		Outputs:           []types.Output{{Token: "0xout", Amount: 900, Recipient: "0xrecipient", ChainID: 2}},
	}
}
