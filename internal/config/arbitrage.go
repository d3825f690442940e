package config

import (
	"errors"
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/shopspring/decimal"
)

const (
	SubmitModeSequential = "sequential"
	SubmitModeBundled    = "bundled"
	SubmitModeSingle     = "single"
)

type ArbitrageConfig struct {
	KeypairPath string
	BaseMint    string
	BaseIn      decimal.Decimal

	BuySlippage     decimal.Decimal
	SellSlippage    decimal.Decimal
	SellSizePercent uint64

	UnitBudget      uint32
	UnitPrice       uint64
	AutoPriorityFee bool
	SubmitMode      string
	ProfitGuard     bool
	SimulateFirst   bool
}

func (c *ArbitrageConfig) Key() string {
	return ARBITRAGE_CONFIG_KEY
}

func (c *ArbitrageConfig) Load() error {
	var err error
	c.KeypairPath = common.GetEnvOrDefault("KEYPAIR_PATH", "./id.json")
	c.BaseMint = common.GetEnvOrDefault("BASE_MINT", "So11111111111111111111111111111111111111112")

	if c.BaseIn, err = decimal.NewFromString(common.GetEnvOrDefault("BASE_IN", "0.01")); err != nil {
		return fmt.Errorf("invalid BASE_IN: %w", err)
	}
	if c.BuySlippage, err = decimal.NewFromString(common.GetEnvOrDefault("BUY_SLIPPAGE", "0.1")); err != nil {
		return fmt.Errorf("invalid BUY_SLIPPAGE: %w", err)
	}
	if c.SellSlippage, err = decimal.NewFromString(common.GetEnvOrDefault("SELL_SLIPPAGE", "1")); err != nil {
		return fmt.Errorf("invalid SELL_SLIPPAGE: %w", err)
	}
	c.SellSizePercent = uint64(common.GetEnvOrDefaultInt("SELL_SIZE_PERCENT", 95))

	c.UnitBudget = uint32(common.GetEnvOrDefaultInt("UNIT_BUDGET", 400_000))
	c.UnitPrice = uint64(common.GetEnvOrDefaultInt("UNIT_PRICE", 100_000))
	c.AutoPriorityFee = common.GetEnvOrDefault("AUTO_PRIORITY_FEE", "false") == "true"
	c.SubmitMode = common.GetEnvOrDefault("SUBMIT_MODE", SubmitModeBundled)
	c.ProfitGuard = common.GetEnvOrDefault("PROFIT_GUARD", "false") == "true"
	c.SimulateFirst = common.GetEnvOrDefault("SIMULATE_FIRST", "false") == "true"
	return c.Validate()
}

func (c *ArbitrageConfig) Validate() error {
	hundred := decimal.NewFromInt(100)
	if !c.BaseIn.IsPositive() {
		return errors.New("invalid arbitrage config: base in must be positive")
	}
	for _, s := range []decimal.Decimal{c.BuySlippage, c.SellSlippage} {
		if s.IsNegative() || s.GreaterThan(hundred) {
			return errors.New("invalid arbitrage config: slippage must be within [0, 100]")
		}
	}
	if c.SellSizePercent == 0 || c.SellSizePercent > 100 {
		return errors.New("invalid arbitrage config: sell size percent must be within [1, 100]")
	}
	switch c.SubmitMode {
	case SubmitModeSequential, SubmitModeBundled, SubmitModeSingle:
	default:
		return fmt.Errorf("invalid arbitrage config: unknown submit mode %q", c.SubmitMode)
	}
	return nil
}
