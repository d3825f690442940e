package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
)

const LUT_CONFIG_KEY = "lut-config"

// LUTConfig lists lookup tables used to compile v0 transactions.
// The single-transaction round trip touches more accounts than a legacy message can hold.
type LUTConfig struct {
	Addresses       []solana.PublicKey
	RefreshInterval time.Duration
}

func (c *LUTConfig) Key() string {
	return LUT_CONFIG_KEY
}

func (c *LUTConfig) Load() error {
	c.Addresses = c.Addresses[:0]
	for _, p := range strings.Split(common.GetEnvOrDefault("LUT_ADDRESSES", ""), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pk, err := solana.PublicKeyFromBase58(p)
		if err != nil {
			return fmt.Errorf("invalid LUT address %q: %w", p, err)
		}
		c.Addresses = append(c.Addresses, pk)
	}
	c.RefreshInterval = time.Duration(common.GetEnvOrDefaultInt("LUT_REFRESH_SECONDS", 60)) * time.Second
	return nil
}

func (c *LUTConfig) Validate() error {
	return nil
}
