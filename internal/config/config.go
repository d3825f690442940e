package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY   = "general-config"
	RPC_CONFIG_KEY       = "rpc-config"
	JITO_CONFIG_KEY      = "jito-config"
	ARBITRAGE_CONFIG_KEY = "arbitrage-config"
	DISCOVERY_CONFIG_KEY = "discovery-config"
	STORAGE_CONFIG_KEY   = "storage-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
	Network  string

	// Per-client request budget for the HTTP API
	RateLimitPerSecond int
	RateLimitBurst     int
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", DevEnv)
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.Network = common.GetEnvOrDefault("NETWORK", "mainnet")
	gc.RateLimitPerSecond = common.GetEnvOrDefaultInt("HTTP_RATE_LIMIT", 10)
	gc.RateLimitBurst = common.GetEnvOrDefaultInt("HTTP_RATE_BURST", 20)
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" || gc.Network == "" {
		return errors.New("invalid server config")
	}
	if gc.RateLimitPerSecond < 1 || gc.RateLimitBurst < 1 {
		return errors.New("invalid server config: rate limit")
	}
	return nil
}
