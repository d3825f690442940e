package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RPCConfig struct {
	RPCUrl string

	// Per-attempt timeout for a single RPC request.
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	Concurrency int
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = common.GetEnvOrDefault("RPC_URL", "https://api.mainnet-beta.solana.com")
	r.Timeout = time.Duration(common.GetEnvOrDefaultInt("RPC_TIMEOUT_SECONDS", 10)) * time.Second
	r.MaxRetries = common.GetEnvOrDefaultInt("RPC_MAX_RETRIES", 5)
	r.Backoff = time.Duration(common.GetEnvOrDefaultInt("RPC_BACKOFF_MS", 1000)) * time.Millisecond
	r.Concurrency = common.GetEnvOrDefaultInt("RPC_CONCURRENCY", 5)
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: empty url")
	}
	if r.MaxRetries < 1 || r.Concurrency < 1 || r.Timeout <= 0 {
		return errors.New("invalid rpc config: retries, concurrency and timeout must be positive")
	}
	return nil
}
