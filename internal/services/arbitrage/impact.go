package arbitrage

import (
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

// Price impact thresholds in basis points
const (
	ImpactLow      uint16 = 100
	ImpactModerate uint16 = 300
	ImpactHigh     uint16 = 500
	ImpactExtreme  uint16 = 1000
)

type ImpactSeverity string

const (
	SeverityNone     ImpactSeverity = "none"
	SeverityLow      ImpactSeverity = "low"
	SeverityModerate ImpactSeverity = "moderate"
	SeverityHigh     ImpactSeverity = "high"
	SeverityExtreme  ImpactSeverity = "extreme"
)

func Severity(bps uint16) ImpactSeverity {
	switch {
	case bps < ImpactLow:
		return SeverityNone
	case bps < ImpactModerate:
		return SeverityLow
	case bps < ImpactHigh:
		return SeverityModerate
	case bps < ImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// ImpactBps is how far quoted falls short of spot, in basis points. Pool fees
// are included. Quotes at or above spot report zero.
func ImpactBps(spot, quoted decimal.Decimal) uint16 {
	if !spot.IsPositive() || quoted.GreaterThanOrEqual(spot) {
		return 0
	}
	bps := decimal.NewFromInt(1).Sub(quoted.Div(spot)).Shift(4).Floor()
	if bps.GreaterThan(decimal.NewFromInt(10_000)) {
		return 10_000
	}
	return uint16(bps.IntPart())
}

// legImpacts compares both legs' quotes with the spot prices they were
// selected at.
func legImpacts(legs *Legs, baseIn decimal.Decimal, p *plan, quoteDec uint8) (buy, sell uint16) {
	if legs.BuyPrice.IsPositive() {
		buy = ImpactBps(baseIn.Div(legs.BuyPrice), p.buy.QuotedOut)
	}
	sellIn := quoter.FromRaw(p.sell.AmountInRaw, quoteDec)
	sell = ImpactBps(sellIn.Mul(legs.SellPrice), p.sell.QuotedOut)
	return buy, sell
}
