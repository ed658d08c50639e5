// Command solverd is the cross-chain intent solver daemon: it loads a TOML
// configuration file, wires storage, discovery, the order registry,
// execution strategy, delivery and settlement together, and runs the
// orchestrator until signalled to stop.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/oif-labs/intentsolver/internal/account"
	"github.com/oif-labs/intentsolver/internal/config"
	"github.com/oif-labs/intentsolver/internal/delivery"
	"github.com/oif-labs/intentsolver/internal/delivery/evm"
	"github.com/oif-labs/intentsolver/internal/discovery"
	"github.com/oif-labs/intentsolver/internal/eventbus"
	"github.com/oif-labs/intentsolver/internal/lifecycle"
	"github.com/oif-labs/intentsolver/internal/logging"
	"github.com/oif-labs/intentsolver/internal/orchestrator"
	"github.com/oif-labs/intentsolver/internal/orderregistry"
	"github.com/oif-labs/intentsolver/internal/orderregistry/eip7683"
	"github.com/oif-labs/intentsolver/internal/orderregistry/gasless7683"
	"github.com/oif-labs/intentsolver/internal/settlement"
	"github.com/oif-labs/intentsolver/internal/settlement/oracleattest"
	"github.com/oif-labs/intentsolver/internal/state"
	"github.com/oif-labs/intentsolver/internal/storage"
	"github.com/oif-labs/intentsolver/internal/strategy"
	"github.com/oif-labs/intentsolver/internal/types"
)

const (
	exitOK             = 0
	exitConfigInvalid  = 1
	exitStartupFailure = 2
	exitFatalRuntime   = 3

	defaultQueueCapacity = 10_000
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "solverd.toml", "path to the TOML configuration file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return exitConfigInvalid
	}

	logger := logging.New(*logLevel, os.Stderr)
	logger.Info().Str("solver_id", cfg.Solver.ID).Msg("starting solver")

	lc := lifecycle.New()
	if err := lc.Initialize(); err != nil {
		logger.Error().Err(err).Msg("lifecycle initialize failed")
		return exitStartupFailure
	}

	store, err := buildStore(cfg.Storage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open storage backend")
		_ = lc.Fail()
		return exitStartupFailure
	}
	defer store.Close()

	bus := eventbus.New(eventbus.DefaultCapacity)
	queue := state.NewPriorityQueue(defaultQueueCapacity)
	stateMgr := state.New(store, queue, bus)

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build order registry")
		_ = lc.Fail()
		return exitStartupFailure
	}

	acct, err := buildAccount(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build account service")
		_ = lc.Fail()
		return exitStartupFailure
	}

	providersByChain, rpcURLByChain, err := buildProviders(cfg, acct)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build delivery providers")
		_ = lc.Fail()
		return exitStartupFailure
	}
	deliveryByChain := make(map[types.ChainID]*delivery.Service, len(providersByChain))
	gasProviders := make(map[types.ChainID]*evm.Provider, len(providersByChain))
	for chainID, provs := range providersByChain {
		deliveryByChain[chainID] = delivery.New(provs...)
		gasProviders[chainID] = provs[0].(*evm.Provider)
	}
	gasSource := evm.NewChainGasSource(gasProviders)

	strat, err := buildStrategy(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build execution strategy")
		_ = lc.Fail()
		return exitStartupFailure
	}

	sources, err := buildDiscoverySources(cfg, registry, store, rpcURLByChain)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build discovery sources")
		_ = lc.Fail()
		return exitStartupFailure
	}
	mux := discovery.New(sources...)

	settlements := buildSettlements(cfg, registry)

	orchCfg := orchestrator.Config{
		Workers:                4,
		MaxAttempts:            5,
		Confirmations:          cfg.Delivery.Confirmations,
		SettlementPollInterval: pollDuration(firstSettlementPollSecs(cfg), 30),
		ExpirySweepInterval:    60 * time.Second,
		SettlementCronExpr:     cfg.Settlement.SweepCronExpr,
		ExpirySweepCronExpr:    cfg.Solver.ExpirySweepCronExpr,
	}
	orch := orchestrator.New(orchCfg, registry, stateMgr, bus, lc, mux, strat, gasSource, deliveryByChain, settlements, logger)

	if err := lc.Start(); err != nil {
		logger.Error().Err(err).Msg("lifecycle start failed")
		return exitStartupFailure
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("signal received, shutting down")
		_ = lc.Shutdown()
		cancel()
	}()

	if err := orch.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("orchestrator run failed")
		_ = lc.Fail()
		return exitFatalRuntime
	}

	if lc.State() == lifecycle.StateRunning {
		_ = lc.Shutdown()
	}
	logger.Info().Msg("solver stopped")
	return exitOK
}

func buildStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "file":
		return storage.NewFileStore(cfg.Path)
	case "kvdb":
		return storage.NewKVStore(cfg.Path, "solver")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func buildRegistry(cfg *config.Config) (*orderregistry.Registry, error) {
	reg := orderregistry.New()
	for name, impl := range cfg.Order.Implementations {
		switch name {
		case string(types.StandardEIP7683):
			reg.Register(eip7683.NewFactory())
		case string(types.StandardEIP7683Gasless):
			addr, err := parseAddress20(impl["verifying_contract"])
			if err != nil {
				return nil, fmt.Errorf("order implementation %s: %w", name, err)
			}
			reg.Register(gasless7683.NewFactory(addr))
		default:
			return nil, fmt.Errorf("unknown order implementation %q", name)
		}
	}
	return reg, nil
}

func buildAccount(cfg *config.Config) (*account.LocalSigner, error) {
	keys := make(map[uint64]string, len(cfg.Delivery.Providers))
	for _, p := range cfg.Delivery.Providers {
		keys[p.ChainID] = p.PrivateKey
	}
	return account.NewLocalSigner(keys)
}

func buildProviders(cfg *config.Config, acct *account.LocalSigner) (map[types.ChainID][]delivery.Provider, map[types.ChainID]string, error) {
	names := make([]string, 0, len(cfg.Delivery.Providers))
	for name := range cfg.Delivery.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	byChain := make(map[types.ChainID][]delivery.Provider)
	rpcByChain := make(map[types.ChainID]string)
	for _, name := range names {
		pc := cfg.Delivery.Providers[name]
		p, err := evm.NewProvider(name, pc.RPCURL, pc.ChainID, acct, pc.RatePerSecond)
		if err != nil {
			return nil, nil, err
		}
		chainID := types.ChainID(pc.ChainID)
		byChain[chainID] = append(byChain[chainID], p)
		rpcByChain[chainID] = pc.RPCURL
	}
	return byChain, rpcByChain, nil
}

func buildStrategy(cfg *config.Config) (strategy.Strategy, error) {
	switch cfg.Order.ExecutionStrategy.StrategyType {
	case "always_execute":
		return strategy.AlwaysExecute{}, nil
	case "gas_capped":
		maxGas, err := parseUint(cfg.Order.ExecutionStrategy.Config["max_gas_price"])
		if err != nil {
			return nil, fmt.Errorf("gas_capped strategy: %w", err)
		}
		return strategy.GasCapped{MaxGasPrice: maxGas}, nil
	default:
		return nil, fmt.Errorf("unknown strategy_type %q", cfg.Order.ExecutionStrategy.StrategyType)
	}
}

func buildDiscoverySources(cfg *config.Config, registry *orderregistry.Registry, store storage.Store, rpcByChain map[types.ChainID]string) ([]discovery.Source, error) {
	names := make([]string, 0, len(cfg.Discovery.Sources))
	for name := range cfg.Discovery.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var sources []discovery.Source
	for _, name := range names {
		sc := cfg.Discovery.Sources[name]
		poll := pollDuration(sc.PollIntervalSecs, 2)

		switch sc.Kind {
		case "onchain":
			rpcURL := rpcByChain[types.ChainID(sc.ChainID)]
			if rpcURL == "" {
				return nil, fmt.Errorf("discovery source %s: no delivery provider configured for chain %d to borrow an RPC endpoint from", name, sc.ChainID)
			}
			client, err := ethclient.Dial(rpcURL)
			if err != nil {
				return nil, fmt.Errorf("discovery source %s: dial: %w", name, err)
			}
			settlers := make([]common.Address, 0, len(sc.SettlerAddresses))
			for _, a := range sc.SettlerAddresses {
				settlers = append(settlers, common.HexToAddress(a))
			}
			batchSize := uint64(sc.BatchSize)
			blockDelay := uint64(sc.BlockDelay)
			src := discovery.NewEVMLogSource(name, discovery.EthClient{Client: client}, settlers, registry.EventSignatures(), store, poll, batchSize, blockDelay, sc.StartBlock)
			sources = append(sources, src)
		case "offchain":
			sources = append(sources, discovery.NewPollingHTTPSource(name, sc.URL, types.OrderStandard(sc.OrderStandard), poll))
		default:
			return nil, fmt.Errorf("discovery source %s: unknown kind %q", name, sc.Kind)
		}
	}
	return sources, nil
}

func buildSettlements(cfg *config.Config, registry *orderregistry.Registry) *settlement.Registry {
	reg := settlement.New()
	for name, impl := range cfg.Settlement.Implementations {
		estimate := impl.EstimateSeconds
		if estimate == 0 {
			estimate = 60
		}
		strat := oracleattest.New(impl.EndpointURL, registry, estimate)
		reg.Register(types.OrderStandard(name), strat)
	}
	return reg
}

func firstSettlementPollSecs(cfg *config.Config) int {
	for _, impl := range cfg.Settlement.Implementations {
		if impl.PollIntervalSecs > 0 {
			return impl.PollIntervalSecs
		}
	}
	return 0
}

func pollDuration(secs, defaultSecs int) time.Duration {
	if secs <= 0 {
		secs = defaultSecs
	}
	return time.Duration(secs) * time.Second
}

func parseUint(s string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimSpace(s), 10); !ok {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n.Uint64(), nil
}

func parseAddress20(s string) ([20]byte, error) {
	var out [20]byte
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 20 {
		return out, fmt.Errorf("invalid 20-byte address %q", s)
	}
	copy(out[:], b)
	return out, nil
}
