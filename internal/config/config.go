// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
// It is read once at startup by the composition root and passed down
// explicitly; nothing else in the codebase touches the environment.
type Config struct {
	ListenAddr      string
	DBPath          string
	ShareTTL        time.Duration
	LedgerRPCURL    string
	ContractAddress string
	HFAPIKey        string
	HFModel         string
}

// HasLedger returns true when both the RPC endpoint and the contract address
// are configured. Used by the composition root to decide whether to create a
// ledger client or leave the health probe degraded-but-static.
func (c *Config) HasLedger() bool {
	return c.LedgerRPCURL != "" && c.ContractAddress != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// The ledger endpoint (CREDREGISTRY_LEDGER_RPC_URL, CREDREGISTRY_CONTRACT_ADDRESS)
// and the inference key (CREDREGISTRY_HF_API_KEY) are optional; the affected
// features degrade gracefully when absent. Optional variables with defaults:
// CREDREGISTRY_LISTEN_ADDR (127.0.0.1:8080), CREDREGISTRY_DB_PATH
// (credregistry.db), CREDREGISTRY_SHARE_TTL (24h), CREDREGISTRY_HF_MODEL
// (google/gemma-2-9b-it).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("CREDREGISTRY_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "credregistry.db"
	if v, ok := os.LookupEnv("CREDREGISTRY_DB_PATH"); ok {
		dbPath = v
	}

	shareTTL := 24 * time.Hour
	if v, ok := os.LookupEnv("CREDREGISTRY_SHARE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CREDREGISTRY_SHARE_TTL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("CREDREGISTRY_SHARE_TTL must be positive, got %q", v)
		}
		shareTTL = parsed
	}

	hfModel := "google/gemma-2-9b-it"
	if v, ok := os.LookupEnv("CREDREGISTRY_HF_MODEL"); ok {
		hfModel = v
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		ShareTTL:        shareTTL,
		LedgerRPCURL:    os.Getenv("CREDREGISTRY_LEDGER_RPC_URL"),
		ContractAddress: os.Getenv("CREDREGISTRY_CONTRACT_ADDRESS"),
		HFAPIKey:        os.Getenv("CREDREGISTRY_HF_API_KEY"),
		HFModel:         hfModel,
	}, nil
}
