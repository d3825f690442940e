package arbitrage

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/services/market"
)

// Legs assigns the two pools of a pair to the buy and sell side.
type Legs struct {
	Buy       market.Pool
	Sell      market.Pool
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	QuoteMint solana.PublicKey
}

// SelectLegs buys where quote is cheaper in base and sells where it is dearer.
// Equal prices keep a as the buy side.
func SelectLegs(a, b market.Pool, base solana.PublicKey) (*Legs, error) {
	priceA, err := a.Price(base)
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", a.Address(), err)
	}
	priceB, err := b.Price(base)
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", b.Address(), err)
	}

	quoteA, err := a.QuoteMint(base)
	if err != nil {
		return nil, err
	}
	quoteB, err := b.QuoteMint(base)
	if err != nil {
		return nil, err
	}
	if !quoteA.Equals(quoteB) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrPairMismatch, quoteA, quoteB)
	}

	legs := &Legs{Buy: a, Sell: b, BuyPrice: priceA, SellPrice: priceB, QuoteMint: quoteA}
	if priceB.LessThan(priceA) {
		legs.Buy, legs.Sell = b, a
		legs.BuyPrice, legs.SellPrice = priceB, priceA
	}
	return legs, nil
}

// SpreadBps is (sell - buy) / buy in basis points.
func (l *Legs) SpreadBps() (float64, bool) {
	if !l.BuyPrice.IsPositive() {
		return 0, false
	}
	bps := l.SellPrice.Sub(l.BuyPrice).Div(l.BuyPrice).Shift(4)
	return bps.InexactFloat64(), true
}
