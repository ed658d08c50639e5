package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalValidTOML = `
[solver]
id = "solver-1"

[storage]
backend = "memory"

[delivery.providers.eth-main]
rpc_url = "https://eth.example"
chain_id = 1
private_key = "0xabc"

[discovery.sources.eth-log]
kind = "onchain"
chain_id = 1

[order.implementations.eip7683]

[order.execution_strategy]
strategy_type = "always_execute"

[settlement.implementations.eip7683]
endpoint_url = "https://oracle.example"
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "solverd.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_ValidConfigAppliesDefaults(t *testing.T) {
	path := writeTemp(t, minimalValidTOML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.MonitoringTimeoutMinutes != 480 {
		t.Fatalf("MonitoringTimeoutMinutes = %d, want default 480", cfg.Solver.MonitoringTimeoutMinutes)
	}
	if cfg.Delivery.Confirmations != 12 {
		t.Fatalf("Confirmations = %d, want default 12", cfg.Delivery.Confirmations)
	}
}

func TestLoad_MissingFileReturnsConfigurationError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidate_AggregatesAllProblems(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error on an empty config")
	}
	msg := err.Error()
	for _, want := range []string{
		"solver.id",
		"storage.backend",
		"delivery.providers",
		"discovery.sources",
		"order.implementations",
		"strategy_type",
		"settlement.implementations",
	} {
		if !contains(msg, want) {
			t.Errorf("expected validation message to mention %q, got: %s", want, msg)
		}
	}
}

func TestValidate_FileBackendRequiresPath(t *testing.T) {
	cfg := Config{
		Solver:  SolverConfig{ID: "s1"},
		Storage: StorageConfig{Backend: "file"},
	}
	err := cfg.Validate()
	if err == nil || !contains(err.Error(), "storage.path") {
		t.Fatalf("expected a storage.path complaint, got: %v", err)
	}
}

func TestMonitoringTimeout(t *testing.T) {
	cfg := Config{Solver: SolverConfig{MonitoringTimeoutMinutes: 2}}
	if got := cfg.MonitoringTimeout().Minutes(); got != 2 {
		t.Fatalf("MonitoringTimeout = %v minutes, want 2", got)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
