// Package config loads and validates the TOML configuration file described
// in the external interfaces section: [solver], [storage], [delivery],
// [account], [discovery], [order], [settlement].
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/oif-labs/intentsolver/internal/solvererr"
)

// Config is the fully-decoded, immutable configuration tree. Once Load
// returns successfully the tree is never mutated again; components receive
// it by value or via read-only accessors.
type Config struct {
	Solver     SolverConfig               `toml:"solver"`
	Storage    StorageConfig              `toml:"storage"`
	Delivery   DeliveryConfig             `toml:"delivery"`
	Account    AccountConfig              `toml:"account"`
	Discovery  DiscoveryConfig            `toml:"discovery"`
	Order      OrderConfig                `toml:"order"`
	Settlement SettlementConfig           `toml:"settlement"`
}

type SolverConfig struct {
	ID                       string `toml:"id"`
	MonitoringTimeoutMinutes int    `toml:"monitoring_timeout_minutes"`
	// ExpirySweepCronExpr, if set, schedules the expiry sweep on this
	// standard 5-field cron expression instead of a fixed poll interval.
	ExpirySweepCronExpr string `toml:"expiry_sweep_cron_expr"`
}

type StorageConfig struct {
	Backend string `toml:"backend"` // "memory" | "file" | "kvdb"
	Path    string `toml:"path"`
}

type ProviderConfig struct {
	RPCURL        string  `toml:"rpc_url"`
	ChainID       uint64  `toml:"chain_id"`
	PrivateKey    string  `toml:"private_key"`
	GasStrategy   string  `toml:"gas_strategy"`
	MaxRetries    int     `toml:"max_retries"`
	RatePerSecond float64 `toml:"rate_per_second"`
}

type DeliveryConfig struct {
	Providers     map[string]ProviderConfig `toml:"providers"`
	Confirmations int                       `toml:"confirmations"`
}

type AccountConfig struct {
	Provider string            `toml:"provider"`
	Config   map[string]string `toml:"config"`
}

type DiscoverySourceConfig struct {
	Kind            string   `toml:"kind"` // "onchain" | "offchain"
	ChainID         uint64   `toml:"chain_id"`
	SettlerAddresses []string `toml:"settler_addresses"`
	StartBlock      *uint64  `toml:"start_block"`
	PollIntervalSecs int     `toml:"poll_interval_secs"`
	BatchSize       int      `toml:"batch_size"`
	BlockDelay      int      `toml:"block_delay"`
	URL             string   `toml:"url"`          // offchain source poll target
	OrderStandard   string   `toml:"order_standard"` // offchain parse hint, e.g. "eip7683-gasless"
}

type DiscoveryConfig struct {
	Sources map[string]DiscoverySourceConfig `toml:"sources"`
}

type OrderImplConfig map[string]string

type ExecutionStrategyConfig struct {
	StrategyType string            `toml:"strategy_type"`
	Config       map[string]string `toml:"config"`
}

type OrderConfig struct {
	Implementations  map[string]OrderImplConfig `toml:"implementations"`
	ExecutionStrategy ExecutionStrategyConfig    `toml:"execution_strategy"`
}

type SettlementImplConfig struct {
	PollIntervalSecs int    `toml:"poll_interval_secs"`
	MaxAttempts      int    `toml:"max_attempts"`
	EndpointURL      string `toml:"endpoint_url"`
	EstimateSeconds  int64  `toml:"estimate_seconds"`
}

type SettlementConfig struct {
	Implementations map[string]SettlementImplConfig `toml:"implementations"`
	// SweepCronExpr, if set, schedules the settlement sweep on this
	// standard 5-field cron expression instead of a fixed poll interval.
	SweepCronExpr string `toml:"sweep_cron_expr"`
}

// Load reads and decodes the TOML file at path, then Validates it.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, solvererr.Configuration(fmt.Errorf("decode %s: %w", path, err))
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Solver.MonitoringTimeoutMinutes == 0 {
		c.Solver.MonitoringTimeoutMinutes = 480
	}
	if c.Delivery.Confirmations == 0 {
		c.Delivery.Confirmations = 12
	}
}

// Validate enforces the non-empty-collections rules from §6: at least one
// provider, one discovery source, one order implementation, one settlement
// implementation, and a strategy_type must be set. Errors are aggregated so
// an operator sees every problem in one run.
func (c *Config) Validate() error {
	var problems []string

	if c.Solver.ID == "" {
		problems = append(problems, "solver.id must be set")
	}
	if c.Storage.Backend != "memory" && c.Storage.Backend != "file" && c.Storage.Backend != "kvdb" {
		problems = append(problems, "storage.backend must be one of memory, file, kvdb")
	}
	if (c.Storage.Backend == "file" || c.Storage.Backend == "kvdb") && c.Storage.Path == "" {
		problems = append(problems, "storage.path required for file/kvdb backend")
	}
	if len(c.Delivery.Providers) == 0 {
		problems = append(problems, "delivery.providers must have at least one entry")
	}
	if len(c.Discovery.Sources) == 0 {
		problems = append(problems, "discovery.sources must have at least one entry")
	}
	if len(c.Order.Implementations) == 0 {
		problems = append(problems, "order.implementations must have at least one entry")
	}
	if c.Order.ExecutionStrategy.StrategyType == "" {
		problems = append(problems, "order.execution_strategy.strategy_type must be set")
	}
	if len(c.Settlement.Implementations) == 0 {
		problems = append(problems, "settlement.implementations must have at least one entry")
	}

	if len(problems) > 0 {
		return solvererr.Configuration(fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - ")))
	}
	return nil
}

// MonitoringTimeout returns the configured monitoring timeout as a
// time.Duration.
func (c *Config) MonitoringTimeout() time.Duration {
	return time.Duration(c.Solver.MonitoringTimeoutMinutes) * time.Minute
}
