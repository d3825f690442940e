package codec

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	AmmV4Size           = 752
	MarketV3Size        = 388
	ClmmPoolSize        = 1544
	BitmapExtensionSize = 8 + 32 + 2*14*8*8
	AmmConfigSize       = 117
)

// AmmV4Layout is the Raydium liquidity state v4 account.
type AmmV4Layout struct {
	Status             uint64
	Nonce              uint64
	MaxOrder           uint64
	Depth              uint64
	BaseDecimal        uint64
	QuoteDecimal       uint64
	State              uint64
	ResetFlag          uint64
	MinSize            uint64
	VolMaxCutRatio     uint64
	AmountWaveRatio    uint64
	BaseLotSize        uint64
	QuoteLotSize       uint64
	MinPriceMultiplier uint64
	MaxPriceMultiplier uint64
	SystemDecimalValue uint64

	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64

	BaseNeedTakePnl     uint64
	QuoteNeedTakePnl    uint64
	QuoteTotalPnl       uint64
	BaseTotalPnl        uint64
	PoolOpenTime        uint64
	PunishPcAmount      uint64
	PunishCoinAmount    uint64
	OrderbookToInitTime uint64

	SwapBaseInAmount   bin.Uint128
	SwapQuoteOutAmount bin.Uint128
	SwapBase2QuoteFee  uint64
	SwapQuoteInAmount  bin.Uint128
	SwapBaseOutAmount  bin.Uint128
	SwapQuote2BaseFee  uint64

	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	Owner           solana.PublicKey

	LpReserve uint64
	Padding   [3]uint64
}

// MarketV3Layout is the OpenBook (Serum v3) market state.
type MarketV3Layout struct {
	Head                   [5]byte
	AccountFlags           uint64
	OwnAddress             solana.PublicKey
	VaultSignerNonce       uint64
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	BaseVault              solana.PublicKey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             solana.PublicKey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           solana.PublicKey
	EventQueue             solana.PublicKey
	Bids                   solana.PublicKey
	Asks                   solana.PublicKey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	Tail                   [7]byte
}

type RewardInfoLayout struct {
	RewardState           uint8
	OpenTime              uint64
	EndTime               uint64
	LastUpdateTime        uint64
	EmissionsPerSecondX64 bin.Uint128
	RewardTotalEmissioned uint64
	RewardClaimed         uint64
	TokenMint             solana.PublicKey
	TokenVault            solana.PublicKey
	Authority             solana.PublicKey
	RewardGrowthGlobalX64 bin.Uint128
}

// ClmmPoolLayout is the Raydium CLMM PoolState account, discriminator included.
type ClmmPoolLayout struct {
	Discriminator [8]byte
	Bump          uint8
	AmmConfig     solana.PublicKey
	Owner         solana.PublicKey
	MintA         solana.PublicKey
	MintB         solana.PublicKey
	VaultA        solana.PublicKey
	VaultB        solana.PublicKey
	ObservationID solana.PublicKey
	DecimalsA     uint8
	DecimalsB     uint8
	TickSpacing   uint16
	Liquidity     bin.Uint128
	SqrtPriceX64  bin.Uint128
	TickCurrent   int32
	Padding3      uint16
	Padding4      uint16

	FeeGrowthGlobalA bin.Uint128
	FeeGrowthGlobalB bin.Uint128
	ProtocolFeesA    uint64
	ProtocolFeesB    uint64
	SwapInAmountA    bin.Uint128
	SwapOutAmountB   bin.Uint128
	SwapInAmountB    bin.Uint128
	SwapOutAmountA   bin.Uint128

	Status  uint8
	Padding [7]uint8

	RewardInfos     [3]RewardInfoLayout
	TickArrayBitmap [16]uint64

	TotalFeesA        uint64
	TotalFeesClaimedA uint64
	TotalFeesB        uint64
	TotalFeesClaimedB uint64
	FundFeesA         uint64
	FundFeesB         uint64
	OpenTime          uint64

	Padding1 [57]uint64
}

// BitmapExtensionLayout covers tick array indices beyond the pool's default bitmap.
type BitmapExtensionLayout struct {
	Discriminator [8]byte
	Pool          solana.PublicKey
	Positive      [14][8]uint64
	Negative      [14][8]uint64
}

// AmmConfigLayout is the CLMM fee tier a pool points at. Rates are in
// hundredths of a bip.
type AmmConfigLayout struct {
	Discriminator   [8]byte
	Bump            uint8
	Index           uint16
	Owner           solana.PublicKey
	ProtocolFeeRate uint32
	TradeFeeRate    uint32
	TickSpacing     uint16
	FundFeeRate     uint32
	PaddingU32      uint32
	FundOwner       solana.PublicKey
	Padding         [3]uint64
}
