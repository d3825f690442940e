package domain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SwapQuote is a priced swap through one pool.
type SwapQuote struct {
	Pool       solana.PublicKey
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey

	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal

	AmountInRaw   uint64
	MinimumOutRaw uint64
}

// PoolPrice is a pool's price for a base mint, expressed as base units per quote unit.
type PoolPrice struct {
	Pool      solana.PublicKey
	Kind      PoolKind
	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey
	Price     decimal.Decimal
	// FeePercent is the swap fee charged on input, e.g. 0.25.
	FeePercent decimal.Decimal
}
