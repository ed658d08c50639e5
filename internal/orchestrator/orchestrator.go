// Package orchestrator wires discovery, the order registry, the state
// manager, an execution strategy, delivery and settlement into the
// pipeline described by the per-order state machine: ingest, execute (N
// workers), sweep for settlement, sweep for expiry.
package orchestrator

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/oif-labs/intentsolver/internal/delivery"
	"github.com/oif-labs/intentsolver/internal/discovery"
	"github.com/oif-labs/intentsolver/internal/eventbus"
	"github.com/oif-labs/intentsolver/internal/lifecycle"
	"github.com/oif-labs/intentsolver/internal/orderregistry"
	"github.com/oif-labs/intentsolver/internal/settlement"
	"github.com/oif-labs/intentsolver/internal/state"
	"github.com/oif-labs/intentsolver/internal/strategy"
	"github.com/oif-labs/intentsolver/internal/types"
)

// GasPriceSource reports the current gas price for a chain, feeding the
// execution strategy's context snapshot.
type GasPriceSource interface {
	GasPrice(ctx context.Context, chainID types.ChainID) (uint64, error)
}

// Config bundles the tunables that are not themselves collaborators.
type Config struct {
	Workers                int
	MaxAttempts            int
	Confirmations          int
	SettlementPollInterval time.Duration
	ExpirySweepInterval    time.Duration

	// SettlementCronExpr/ExpirySweepCronExpr, if set, schedule the sweeps
	// on a standard 5-field cron expression (wall-clock aligned) instead
	// of a fixed period after process start. Empty means "use the plain
	// ticker interval above".
	SettlementCronExpr string
	ExpirySweepCronExpr string
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Confirmations <= 0 {
		c.Confirmations = 12
	}
	if c.SettlementPollInterval <= 0 {
		c.SettlementPollInterval = 30 * time.Second
	}
	if c.ExpirySweepInterval <= 0 {
		c.ExpirySweepInterval = 60 * time.Second
	}
}

// Orchestrator owns the per-order state machine. One instance runs for the
// lifetime of the process.
type Orchestrator struct {
	cfg Config

	registry        *orderregistry.Registry
	state           *state.Manager
	bus             *eventbus.Bus
	lifecycle       *lifecycle.Manager
	mux             *discovery.Multiplexer
	strat           strategy.Strategy
	gasSource       GasPriceSource
	deliveryByChain map[types.ChainID]*delivery.Service
	settlements     *settlement.Registry
	log             zerolog.Logger

	runID string
	cron  *cron.Cron
}

// New builds an Orchestrator. deliveryByChain maps each chain the solver
// can transact on to the ordered fail-over delivery.Service for that
// chain (fill transactions are submitted on an order's destination chain,
// claim transactions on its origin chain).
func New(
	cfg Config,
	registry *orderregistry.Registry,
	stateMgr *state.Manager,
	bus *eventbus.Bus,
	lc *lifecycle.Manager,
	mux *discovery.Multiplexer,
	strat strategy.Strategy,
	gasSource GasPriceSource,
	deliveryByChain map[types.ChainID]*delivery.Service,
	settlements *settlement.Registry,
	logger zerolog.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	runID := uuid.NewString()
	return &Orchestrator{
		cfg:             cfg,
		registry:        registry,
		state:           stateMgr,
		bus:             bus,
		lifecycle:       lc,
		mux:             mux,
		strat:           strat,
		gasSource:       gasSource,
		deliveryByChain: deliveryByChain,
		settlements:     settlements,
		log:             logger.With().Str("component", "orchestrator").Str("run_id", runID).Logger(),
		runID:           runID,
	}
}

// RunID is the correlation id for this orchestrator run, attached to every
// log line it emits; useful for grepping one process lifetime's logs out
// of an aggregated stream.
func (o *Orchestrator) RunID() string { return o.runID }

// Run recovers persisted state, then starts the ingest task, N execution
// workers, the settlement sweeper and the expiry sweeper, and blocks until
// ctx is cancelled or the lifecycle manager broadcasts shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	recovered, err := o.state.Recover()
	if err != nil {
		return err
	}
	o.log.Info().Int("recovered", recovered).Msg("recovered persisted order states")

	shutdown := o.lifecycle.Subscribe()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-runCtx.Done():
		}
	}()

	intents := o.mux.Start(runCtx)
	go o.ingestLoop(runCtx, intents)

	for i := 0; i < o.cfg.Workers; i++ {
		go o.executionWorker(runCtx, i)
	}

	if o.cfg.SettlementCronExpr != "" || o.cfg.ExpirySweepCronExpr != "" {
		if err := o.startCronSweeps(runCtx); err != nil {
			return err
		}
		defer o.cron.Stop()
	}
	if o.cfg.SettlementCronExpr == "" {
		go o.settlementSweepLoop(runCtx)
	}
	if o.cfg.ExpirySweepCronExpr == "" {
		go o.expirySweepLoop(runCtx)
	}

	<-runCtx.Done()
	return nil
}

// startCronSweeps registers wall-clock-aligned cron schedules for whichever
// of the two sweeps has a cron expression configured, for operators who
// want sweep windows aligned to clock boundaries rather than a fixed
// period after process start.
func (o *Orchestrator) startCronSweeps(ctx context.Context) error {
	o.cron = cron.New()
	if o.cfg.SettlementCronExpr != "" {
		if _, err := o.cron.AddFunc(o.cfg.SettlementCronExpr, func() { o.sweepSettlements(ctx) }); err != nil {
			return err
		}
	}
	if o.cfg.ExpirySweepCronExpr != "" {
		if _, err := o.cron.AddFunc(o.cfg.ExpirySweepCronExpr, func() { o.sweepExpired() }); err != nil {
			return err
		}
	}
	o.cron.Start()
	return nil
}

func reservationKey(id [32]byte, phase string) string {
	return hex.EncodeToString(id[:]) + ":" + phase
}

func (o *Orchestrator) publish(ev types.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

func now() time.Time { return time.Now() }

func ptrTime(t time.Time) *time.Time { return &t }
