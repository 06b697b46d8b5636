package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsInvertedFibZone(t *testing.T) {
	cfg := Default()
	cfg.Strategy.FibMin = 0.618
	cfg.Strategy.FibMax = 0.382
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for inverted fib zone")
	}
}

func TestValidateRejectsPrekillAboveKill(t *testing.T) {
	cfg := Default()
	cfg.Risk.DailyLossPrekillPct = 0.30
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for prekill > kill")
	}
}

func TestValidateRejectsMultiPosition(t *testing.T) {
	cfg := Default()
	cfg.Risk.MaxOpenPositions = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_open_positions != 1")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Strategy.EMAPeriod != 14 {
		t.Fatalf("expected default ema_period 14, got %d", cfg.Strategy.EMAPeriod)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := []byte("strategy:\n  ema_period: 5\nrisk:\n  account_size: 100\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Strategy.EMAPeriod != 5 {
		t.Fatalf("expected ema_period 5, got %d", cfg.Strategy.EMAPeriod)
	}
	if cfg.Risk.AccountSize != 100 {
		t.Fatalf("expected account_size 100, got %v", cfg.Risk.AccountSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Strategy.ATRPeriod != 14 {
		t.Fatalf("expected atr_period default 14, got %d", cfg.Strategy.ATRPeriod)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("strategy: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
