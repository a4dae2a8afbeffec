// Package config provides configuration management for the wallet sentinel
// engine. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Risk      RiskConfig
	Detection DetectionConfig
	Sync      SyncConfig
	Traversal TraversalConfig
	Logging   LoggingConfig
}

// DatabaseConfig holds backing-store configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds ledger store configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds graph store configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// RiskConfig holds the heuristic risk-scoring thresholds
type RiskConfig struct {
	TxCountThreshold      int64   // outbound or inbound tx count above which score increases
	UniqueWalletThreshold int64   // distinct counterparties above which score increases
	TotalValueThreshold   float64 // combined in+out ETH volume above which score increases
	OutboundRatio         float64 // outbound share of total volume above which score increases
}

// DetectionConfig holds pattern detector thresholds and scheduler settings
type DetectionConfig struct {
	LargeTxThreshold   float64 // ETH value at or above which a transaction counts as large
	HourlySpikeCount   int     // per-hour tx count that must be exceeded to flag a spike
	RecurringMinTx     int     // minimum transactions before recurring analysis runs
	RepeatedMinTx      int     // minimum transactions before repeated-value analysis runs
	RepeatedOccurrence int     // per-value occurrence count that must be exceeded
	Workers            int     // bounded worker pool size for the scheduler
}

// SyncConfig holds ledger-to-graph synchronizer settings
type SyncConfig struct {
	TxBatchSize      int     // transactions merged per graph pipeline commit
	LabelBatchSize   int     // blacklist addresses labeled per batch
	BatchesPerSecond float64 // rate limit applied between batch commits
}

// TraversalConfig holds transitive risk graph defaults
type TraversalConfig struct {
	MaxHops     int // bounded-depth limit for blacklist reachability
	ResultLimit int // cap on blacklisted nodes returned per query
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_sentinel"),
				User:           getEnv("POSTGRES_USER", "sentinel"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 100),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Risk: RiskConfig{
			TxCountThreshold:      getEnvAsInt64("RISK_TX_COUNT_THRESHOLD", 50),
			UniqueWalletThreshold: getEnvAsInt64("RISK_UNIQUE_WALLET_THRESHOLD", 20),
			TotalValueThreshold:   getEnvAsFloat("RISK_TOTAL_VALUE_THRESHOLD", 100),
			OutboundRatio:         getEnvAsFloat("RISK_OUTBOUND_RATIO", 0.8),
		},
		Detection: DetectionConfig{
			LargeTxThreshold:   getEnvAsFloat("DETECT_LARGE_TX_THRESHOLD", 10000),
			HourlySpikeCount:   getEnvAsInt("DETECT_HOURLY_SPIKE_COUNT", 50),
			RecurringMinTx:     getEnvAsInt("DETECT_RECURRING_MIN_TX", 5),
			RepeatedMinTx:      getEnvAsInt("DETECT_REPEATED_MIN_TX", 10),
			RepeatedOccurrence: getEnvAsInt("DETECT_REPEATED_OCCURRENCE", 10),
			Workers:            getEnvAsInt("DETECT_WORKERS", 4),
		},
		Sync: SyncConfig{
			TxBatchSize:      getEnvAsInt("SYNC_TX_BATCH_SIZE", 1000),
			LabelBatchSize:   getEnvAsInt("SYNC_LABEL_BATCH_SIZE", 500),
			BatchesPerSecond: getEnvAsFloat("SYNC_BATCHES_PER_SECOND", 10),
		},
		Traversal: TraversalConfig{
			MaxHops:     getEnvAsInt("TRAVERSAL_MAX_HOPS", 3),
			ResultLimit: getEnvAsInt("TRAVERSAL_RESULT_LIMIT", 50),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 gets an environment variable as an int64 with a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float64 with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
