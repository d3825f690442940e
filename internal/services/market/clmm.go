package market

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/tickarray"
	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

// ClmmPool quotes at the current sqrt price, net of the fee tier's trade fee.
// Trades that cross an initialized tick get a better quote than the pool will fill.
type ClmmPool struct {
	net   common.Network
	state *domain.ConcentratedState
}

func NewClmmPool(net common.Network, state *domain.ConcentratedState) *ClmmPool {
	return &ClmmPool{net: net, state: state}
}

func (p *ClmmPool) Address() solana.PublicKey { return p.state.Address }
func (p *ClmmPool) Kind() domain.PoolKind     { return domain.PoolKindConcentrated }
func (p *ClmmPool) State() domain.PoolState   { return p.state }

func (p *ClmmPool) QuoteMint(base solana.PublicKey) (solana.PublicKey, error) {
	switch {
	case base.Equals(p.state.MintA):
		return p.state.MintB, nil
	case base.Equals(p.state.MintB):
		return p.state.MintA, nil
	default:
		return solana.PublicKey{}, fmt.Errorf("%w: %s in pool %s", ErrInvalidMint, base, p.state.Address)
	}
}

func (p *ClmmPool) Decimals(base solana.PublicKey) (uint8, uint8, error) {
	switch {
	case base.Equals(p.state.MintA):
		return p.state.DecimalsA, p.state.DecimalsB, nil
	case base.Equals(p.state.MintB):
		return p.state.DecimalsB, p.state.DecimalsA, nil
	default:
		return 0, 0, fmt.Errorf("%w: %s in pool %s", ErrInvalidMint, base, p.state.Address)
	}
}

func (p *ClmmPool) Price(base solana.PublicKey) (decimal.Decimal, error) {
	if _, err := p.QuoteMint(base); err != nil {
		return decimal.Zero, err
	}
	priceAB, err := quoter.ClmmPrice(p.state.SqrtPriceX64, p.state.DecimalsA, p.state.DecimalsB)
	if err != nil {
		return decimal.Zero, err
	}
	if base.Equals(p.state.MintA) {
		return decimal.NewFromInt(1).DivRound(priceAB, 40), nil
	}
	return priceAB, nil
}

func (p *ClmmPool) QuoteForward(amountIn decimal.Decimal, base solana.PublicKey) (decimal.Decimal, error) {
	price, err := p.Price(base)
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsZero() {
		return decimal.Zero, quoter.ErrZeroReserve
	}
	net, err := quoter.ClmmAmountAfterFee(amountIn, p.state.TradeFeeRate)
	if err != nil {
		return decimal.Zero, err
	}
	return net.DivRound(price, 40).Round(quoter.AmountPrecision), nil
}

func (p *ClmmPool) QuoteReverse(amountInQuote decimal.Decimal, base solana.PublicKey) (decimal.Decimal, error) {
	price, err := p.Price(base)
	if err != nil {
		return decimal.Zero, err
	}
	net, err := quoter.ClmmAmountAfterFee(amountInQuote, p.state.TradeFeeRate)
	if err != nil {
		return decimal.Zero, err
	}
	return net.Mul(price).Round(quoter.AmountPrecision), nil
}

func (p *ClmmPool) BuildSwapInstruction(sp SwapParams) (solana.Instruction, error) {
	if _, err := p.QuoteMint(sp.InputMint); err != nil {
		return nil, err
	}
	zeroForOne := sp.InputMint.Equals(p.state.MintA)

	arrays, err := tickarray.Addresses(p.net.ClmmProgramID, p.state, zeroForOne)
	if err != nil {
		return nil, err
	}
	return builder.ClmmSwapInstruction(p.net, p.state, builder.SwapAccounts{
		Source:      sp.Source,
		Destination: sp.Destination,
		Owner:       sp.Owner,
	}, sp.InputMint, arrays, sp.AmountIn)
}

func (p *ClmmPool) BuildBuyInstructions(bp BuyParams) (*LegResult, error) {
	return buildBuy(p, bp)
}

func (p *ClmmPool) BuildSellInstructions(sp SellParams) (*LegResult, error) {
	return buildSell(p, sp)
}
