package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type JitoConfig struct {
	BlockEngineURL string
	TipLamports    uint64

	// Confirmation polling
	PollDelay            time.Duration
	LandingAttempts      int
	FinalizationAttempts int
	InvalidGrace         int
}

func (c *JitoConfig) Key() string {
	return JITO_CONFIG_KEY
}

func (c *JitoConfig) Load() error {
	c.BlockEngineURL = common.GetEnvOrDefault("JITO_BLOCK_ENGINE_URL", "https://mainnet.block-engine.jito.wtf")
	c.TipLamports = uint64(common.GetEnvOrDefaultInt("JITO_TIP_LAMPORTS", 10_000))
	c.PollDelay = time.Duration(common.GetEnvOrDefaultInt("JITO_POLL_DELAY_MS", 2000)) * time.Millisecond
	c.LandingAttempts = common.GetEnvOrDefaultInt("JITO_LANDING_ATTEMPTS", 30)
	c.FinalizationAttempts = common.GetEnvOrDefaultInt("JITO_FINALIZATION_ATTEMPTS", 60)
	c.InvalidGrace = common.GetEnvOrDefaultInt("JITO_INVALID_GRACE", 3)
	return c.Validate()
}

func (c *JitoConfig) Validate() error {
	if c.BlockEngineURL == "" {
		return errors.New("invalid jito config: empty block engine url")
	}
	if c.LandingAttempts < 1 || c.FinalizationAttempts < 1 || c.InvalidGrace < 0 {
		return errors.New("invalid jito config: polling budget")
	}
	return nil
}
