package domain

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// AccountBlob is a raw account as returned by the chain.
type AccountBlob struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Data     []byte
	Lamports uint64
}

// TokenBalance is a token account balance in raw and UI units.
type TokenBalance struct {
	Amount   uint64
	Decimals uint8
	UIAmount decimal.Decimal
}

type PoolKind uint8

const (
	PoolKindConstantProduct PoolKind = iota
	PoolKindConcentrated
)

func (k PoolKind) String() string {
	switch k {
	case PoolKindConstantProduct:
		return "RaydiumAmmV4"
	case PoolKindConcentrated:
		return "RaydiumClmm"
	default:
		return "Unknown"
	}
}

// PoolState is implemented only by ConstantProductState and ConcentratedState.
type PoolState interface {
	Kind() PoolKind
	PoolAddress() solana.PublicKey
	isPoolState()
}

// ConstantProductState is a decoded AMM v4 pool joined with its OpenBook market.
// Reserves are raw vault balances net of pending pnl, captured when the state was loaded.
type ConstantProductState struct {
	Address solana.PublicKey

	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	BaseReserve   uint64
	QuoteReserve  uint64

	SwapFeeNumerator   uint64
	SwapFeeDenominator uint64

	OpenOrders      solana.PublicKey
	TargetOrders    solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey

	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	VaultSignerNonce uint64
	MarketAuthority  solana.PublicKey
}

func (s *ConstantProductState) Kind() PoolKind                { return PoolKindConstantProduct }
func (s *ConstantProductState) PoolAddress() solana.PublicKey { return s.Address }
func (s *ConstantProductState) isPoolState()                  {}

// ExtensionBitmaps mirrors the tick array bitmap extension account.
type ExtensionBitmaps struct {
	Positive [14][8]uint64
	Negative [14][8]uint64
}

// ConcentratedState is a decoded CLMM pool.
type ConcentratedState struct {
	Address solana.PublicKey

	MintA     solana.PublicKey
	MintB     solana.PublicKey
	DecimalsA uint8
	DecimalsB uint8
	VaultA    solana.PublicKey
	VaultB    solana.PublicKey

	AmmConfig        solana.PublicKey
	ObservationState solana.PublicKey
	// TradeFeeRate is read from AmmConfig, in hundredths of a bip.
	TradeFeeRate uint32

	SqrtPriceX64 bin.Uint128
	Liquidity    bin.Uint128
	TickCurrent  int32
	TickSpacing  uint16

	TickArrayBitmap  [16]uint64
	BitmapExtension  solana.PublicKey
	ExtensionBitmaps *ExtensionBitmaps
}

func (s *ConcentratedState) Kind() PoolKind                { return PoolKindConcentrated }
func (s *ConcentratedState) PoolAddress() solana.PublicKey { return s.Address }
func (s *ConcentratedState) isPoolState()                  {}
