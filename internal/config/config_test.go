package config

import (
	"os"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Risk.TxCountThreshold != 50 {
		t.Errorf("Risk.TxCountThreshold = %v, want 50", cfg.Risk.TxCountThreshold)
	}
	if cfg.Risk.UniqueWalletThreshold != 20 {
		t.Errorf("Risk.UniqueWalletThreshold = %v, want 20", cfg.Risk.UniqueWalletThreshold)
	}
	if cfg.Risk.OutboundRatio != 0.8 {
		t.Errorf("Risk.OutboundRatio = %v, want 0.8", cfg.Risk.OutboundRatio)
	}
	if cfg.Detection.LargeTxThreshold != 10000 {
		t.Errorf("Detection.LargeTxThreshold = %v, want 10000", cfg.Detection.LargeTxThreshold)
	}
	if cfg.Sync.TxBatchSize != 1000 {
		t.Errorf("Sync.TxBatchSize = %v, want 1000", cfg.Sync.TxBatchSize)
	}
	if cfg.Sync.LabelBatchSize != 500 {
		t.Errorf("Sync.LabelBatchSize = %v, want 500", cfg.Sync.LabelBatchSize)
	}
	if cfg.Traversal.MaxHops != 3 {
		t.Errorf("Traversal.MaxHops = %v, want 3", cfg.Traversal.MaxHops)
	}
	if cfg.Traversal.ResultLimit != 50 {
		t.Errorf("Traversal.ResultLimit = %v, want 50", cfg.Traversal.ResultLimit)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("DETECT_HOURLY_SPIKE_COUNT", "75"); err != nil {
		t.Fatalf("Failed to set DETECT_HOURLY_SPIKE_COUNT: %v", err)
	}
	if err := os.Setenv("RISK_TOTAL_VALUE_THRESHOLD", "250.5"); err != nil {
		t.Fatalf("Failed to set RISK_TOTAL_VALUE_THRESHOLD: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("DETECT_HOURLY_SPIKE_COUNT")
		_ = os.Unsetenv("RISK_TOTAL_VALUE_THRESHOLD")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want testhost", cfg.Database.Postgres.Host)
	}
	if cfg.Detection.HourlySpikeCount != 75 {
		t.Errorf("Detection.HourlySpikeCount = %v, want 75", cfg.Detection.HourlySpikeCount)
	}
	if cfg.Risk.TotalValueThreshold != 250.5 {
		t.Errorf("Risk.TotalValueThreshold = %v, want 250.5", cfg.Risk.TotalValueThreshold)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue float64
		want         float64
	}{
		{name: "parses valid float", envValue: "1.25", defaultValue: 0, want: 1.25},
		{name: "falls back on invalid value", envValue: "not-a-number", defaultValue: 0.8, want: 0.8},
		{name: "falls back when unset", envValue: "", defaultValue: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv("TEST_FLOAT_KEY", tt.envValue); err != nil {
					t.Fatalf("Failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv("TEST_FLOAT_KEY")
				}()
			}

			got := getEnvAsFloat("TEST_FLOAT_KEY", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
