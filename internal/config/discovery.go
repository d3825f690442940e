package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
)

type DiscoveryConfig struct {
	RaydiumAPIURL string
	PageSize      int
}

func (c *DiscoveryConfig) Key() string {
	return DISCOVERY_CONFIG_KEY
}

func (c *DiscoveryConfig) Load() error {
	c.RaydiumAPIURL = common.GetEnvOrDefault("RAYDIUM_API_URL", "https://api-v3.raydium.io")
	c.PageSize = common.GetEnvOrDefaultInt("DISCOVERY_PAGE_SIZE", 2)
	return nil
}

func (c *DiscoveryConfig) Validate() error {
	return nil
}
