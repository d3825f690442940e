// Package market turns decoded pool accounts into priced, tradeable pool handles.
package market

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

var (
	ErrInvalidMint       = errors.New("mint is not part of the pool")
	ErrInvalidPercentage = errors.New("percentage must be within [1, 100]")
)

// Pool is the capability shared by every supported pool variant.
type Pool interface {
	Address() solana.PublicKey
	Kind() domain.PoolKind
	State() domain.PoolState

	QuoteMint(base solana.PublicKey) (solana.PublicKey, error)
	Decimals(base solana.PublicKey) (baseDecimals, quoteDecimals uint8, err error)

	// Price is the amount of base paid per unit of quote.
	Price(base solana.PublicKey) (decimal.Decimal, error)
	QuoteForward(amountIn decimal.Decimal, base solana.PublicKey) (decimal.Decimal, error)
	QuoteReverse(amountInQuote decimal.Decimal, base solana.PublicKey) (decimal.Decimal, error)

	BuildSwapInstruction(p SwapParams) (solana.Instruction, error)
	BuildBuyInstructions(p BuyParams) (*LegResult, error)
	BuildSellInstructions(p SellParams) (*LegResult, error)
}

type SwapParams struct {
	AmountIn         uint64
	MinimumAmountOut uint64
	Source           solana.PublicKey
	Destination      solana.PublicKey
	Owner            solana.PublicKey
	InputMint        solana.PublicKey
}

type BuyParams struct {
	BaseIn       decimal.Decimal
	Slippage     decimal.Decimal
	BaseMint     solana.PublicKey
	BaseAccount  solana.PublicKey
	QuoteAccount solana.PublicKey
	Owner        solana.PublicKey
}

type SellParams struct {
	// QuoteAvailable is the raw quote balance the sell draws from.
	QuoteAvailable uint64
	Percentage     int
	Slippage       decimal.Decimal
	BaseMint       solana.PublicKey
	BaseAccount    solana.PublicKey
	QuoteAccount   solana.PublicKey
	Owner          solana.PublicKey
}

type LegResult struct {
	Instructions  []solana.Instruction
	AmountInRaw   uint64
	QuotedOut     decimal.Decimal
	MinimumOutRaw uint64
}

func buildBuy(pool Pool, p BuyParams) (*LegResult, error) {
	baseDec, quoteDec, err := pool.Decimals(p.BaseMint)
	if err != nil {
		return nil, err
	}

	baseInRaw, err := quoter.ToRaw(p.BaseIn, baseDec)
	if err != nil {
		return nil, err
	}
	quoteOut, err := pool.QuoteForward(p.BaseIn, p.BaseMint)
	if err != nil {
		return nil, err
	}
	minOut, err := quoter.SlippageFloor(quoteOut.Shift(int32(quoteDec)), p.Slippage)
	if err != nil {
		return nil, err
	}

	ix, err := pool.BuildSwapInstruction(SwapParams{
		AmountIn:         baseInRaw,
		MinimumAmountOut: minOut,
		Source:           p.BaseAccount,
		Destination:      p.QuoteAccount,
		Owner:            p.Owner,
		InputMint:        p.BaseMint,
	})
	if err != nil {
		return nil, err
	}

	return &LegResult{
		Instructions:  []solana.Instruction{ix},
		AmountInRaw:   baseInRaw,
		QuotedOut:     quoteOut,
		MinimumOutRaw: minOut,
	}, nil
}

// SellAmount is the raw quote spent for a sell of pct percent of available.
func SellAmount(available uint64, pct int) (uint64, error) {
	if pct < 1 || pct > 100 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPercentage, pct)
	}
	v := new(big.Int).SetUint64(available)
	v.Mul(v, big.NewInt(int64(pct)))
	v.Div(v, big.NewInt(100))
	return v.Uint64(), nil
}

func buildSell(pool Pool, p SellParams) (*LegResult, error) {
	quoteInRaw, err := SellAmount(p.QuoteAvailable, p.Percentage)
	if err != nil {
		return nil, err
	}
	quoteMint, err := pool.QuoteMint(p.BaseMint)
	if err != nil {
		return nil, err
	}
	baseDec, quoteDec, err := pool.Decimals(p.BaseMint)
	if err != nil {
		return nil, err
	}

	baseOut, err := pool.QuoteReverse(quoter.FromRaw(quoteInRaw, quoteDec), p.BaseMint)
	if err != nil {
		return nil, err
	}
	minOut, err := quoter.SlippageFloor(baseOut.Shift(int32(baseDec)), p.Slippage)
	if err != nil {
		return nil, err
	}

	ix, err := pool.BuildSwapInstruction(SwapParams{
		AmountIn:         quoteInRaw,
		MinimumAmountOut: minOut,
		Source:           p.QuoteAccount,
		Destination:      p.BaseAccount,
		Owner:            p.Owner,
		InputMint:        quoteMint,
	})
	if err != nil {
		return nil, err
	}

	ixs := []solana.Instruction{ix}
	if p.Percentage == 100 {
		ixs = append(ixs, builder.CloseAccountInstruction(p.QuoteAccount, p.Owner))
	}

	return &LegResult{
		Instructions:  ixs,
		AmountInRaw:   quoteInRaw,
		QuotedOut:     baseOut,
		MinimumOutRaw: minOut,
	}, nil
}
