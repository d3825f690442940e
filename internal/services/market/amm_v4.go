package market

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

// AmmV4Pool prices against the reserves captured at load time.
type AmmV4Pool struct {
	net   common.Network
	state *domain.ConstantProductState
}

func NewAmmV4Pool(net common.Network, state *domain.ConstantProductState) *AmmV4Pool {
	return &AmmV4Pool{net: net, state: state}
}

func (p *AmmV4Pool) Address() solana.PublicKey { return p.state.Address }
func (p *AmmV4Pool) Kind() domain.PoolKind     { return domain.PoolKindConstantProduct }
func (p *AmmV4Pool) State() domain.PoolState   { return p.state }

type side struct {
	reserveBase, reserveQuote   uint64
	baseDecimals, quoteDecimals uint8
	quoteMint                   solana.PublicKey
}

func (p *AmmV4Pool) orient(base solana.PublicKey) (side, error) {
	s := p.state
	switch {
	case base.Equals(s.BaseMint):
		return side{s.BaseReserve, s.QuoteReserve, s.BaseDecimals, s.QuoteDecimals, s.QuoteMint}, nil
	case base.Equals(s.QuoteMint):
		return side{s.QuoteReserve, s.BaseReserve, s.QuoteDecimals, s.BaseDecimals, s.BaseMint}, nil
	default:
		return side{}, fmt.Errorf("%w: %s in pool %s", ErrInvalidMint, base, s.Address)
	}
}

func (p *AmmV4Pool) QuoteMint(base solana.PublicKey) (solana.PublicKey, error) {
	o, err := p.orient(base)
	return o.quoteMint, err
}

func (p *AmmV4Pool) Decimals(base solana.PublicKey) (uint8, uint8, error) {
	o, err := p.orient(base)
	return o.baseDecimals, o.quoteDecimals, err
}

func (p *AmmV4Pool) Price(base solana.PublicKey) (decimal.Decimal, error) {
	o, err := p.orient(base)
	if err != nil {
		return decimal.Zero, err
	}
	return quoter.ConstantProductPrice(o.reserveBase, o.reserveQuote, o.baseDecimals, o.quoteDecimals)
}

func (p *AmmV4Pool) QuoteForward(amountIn decimal.Decimal, base solana.PublicKey) (decimal.Decimal, error) {
	o, err := p.orient(base)
	if err != nil {
		return decimal.Zero, err
	}
	return quoter.ConstantProductQuote(amountIn, o.baseDecimals, o.quoteDecimals,
		o.reserveBase, o.reserveQuote, p.state.SwapFeeNumerator, p.state.SwapFeeDenominator)
}

func (p *AmmV4Pool) QuoteReverse(amountInQuote decimal.Decimal, base solana.PublicKey) (decimal.Decimal, error) {
	o, err := p.orient(base)
	if err != nil {
		return decimal.Zero, err
	}
	return quoter.ConstantProductQuote(amountInQuote, o.quoteDecimals, o.baseDecimals,
		o.reserveQuote, o.reserveBase, p.state.SwapFeeNumerator, p.state.SwapFeeDenominator)
}

func (p *AmmV4Pool) BuildSwapInstruction(sp SwapParams) (solana.Instruction, error) {
	if _, err := p.orient(sp.InputMint); err != nil {
		return nil, err
	}
	return builder.AmmV4SwapInstruction(p.net, p.state, builder.SwapAccounts{
		Source:      sp.Source,
		Destination: sp.Destination,
		Owner:       sp.Owner,
	}, sp.AmountIn, sp.MinimumAmountOut)
}

func (p *AmmV4Pool) BuildBuyInstructions(bp BuyParams) (*LegResult, error) {
	return buildBuy(p, bp)
}

func (p *AmmV4Pool) BuildSellInstructions(sp SellParams) (*LegResult, error) {
	return buildSell(p, sp)
}
