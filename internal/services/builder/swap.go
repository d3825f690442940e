package builder

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

var ErrInvalidSwapAccounts = errors.New("invalid swap accounts")

const ammV4SwapBaseIn uint8 = 9

var clmmSwapV2Discriminator = [8]byte{0x2b, 0x04, 0xed, 0x0b, 0x1a, 0xc9, 0x1e, 0x62}

// SwapAccounts are the user side of a swap.
type SwapAccounts struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
}

func (a SwapAccounts) validate() error {
	if a.Source.IsZero() || a.Destination.IsZero() || a.Owner.IsZero() {
		return fmt.Errorf("%w: source, destination and owner are required", ErrInvalidSwapAccounts)
	}
	if a.Source.Equals(a.Destination) {
		return fmt.Errorf("%w: source equals destination", ErrInvalidSwapAccounts)
	}
	return nil
}

type ammV4SwapArgs struct {
	Instruction      uint8
	AmountIn         uint64
	MinimumAmountOut uint64
}

// AmmV4SwapInstruction builds swap_base_in against a constant-product pool.
func AmmV4SwapInstruction(net common.Network, pool *domain.ConstantProductState, user SwapAccounts, amountIn, minimumOut uint64) (solana.Instruction, error) {
	if err := user.validate(); err != nil {
		return nil, err
	}

	data, err := encode(&ammV4SwapArgs{
		Instruction:      ammV4SwapBaseIn,
		AmountIn:         amountIn,
		MinimumAmountOut: minimumOut,
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(net.TokenProgramID),
		solana.Meta(pool.Address).WRITE(),
		solana.Meta(net.AmmV4Authority),
		solana.Meta(pool.OpenOrders).WRITE(),
		solana.Meta(pool.TargetOrders).WRITE(),
		solana.Meta(pool.BaseVault).WRITE(),
		solana.Meta(pool.QuoteVault).WRITE(),
		solana.Meta(pool.MarketProgramID),
		solana.Meta(pool.MarketID).WRITE(),
		solana.Meta(pool.MarketBids).WRITE(),
		solana.Meta(pool.MarketAsks).WRITE(),
		solana.Meta(pool.MarketEventQueue).WRITE(),
		solana.Meta(pool.MarketBaseVault).WRITE(),
		solana.Meta(pool.MarketQuoteVault).WRITE(),
		solana.Meta(pool.MarketAuthority),
		solana.Meta(user.Source).WRITE(),
		solana.Meta(user.Destination).WRITE(),
		solana.Meta(user.Owner).SIGNER(),
	}
	return solana.NewInstruction(net.AmmV4ProgramID, accounts, data), nil
}

type clmmSwapV2Args struct {
	Discriminator        [8]byte
	Amount               uint64
	OtherAmountThreshold uint64
	SqrtPriceLimitX64    bin.Uint128
	IsBaseInput          bool
}

// ClmmSwapInstruction builds swap_v2 against a concentrated pool. tickArrays
// must hold the arrays in swap order, the first being the current one.
func ClmmSwapInstruction(net common.Network, pool *domain.ConcentratedState, user SwapAccounts, inputMint solana.PublicKey, tickArrays []solana.PublicKey, amountIn uint64) (solana.Instruction, error) {
	if err := user.validate(); err != nil {
		return nil, err
	}
	if len(tickArrays) < 3 {
		return nil, fmt.Errorf("%w: need 3 tick arrays, got %d", ErrInvalidSwapAccounts, len(tickArrays))
	}

	var inputVault, outputVault, outputMint solana.PublicKey
	switch {
	case inputMint.Equals(pool.MintA):
		inputVault, outputVault, outputMint = pool.VaultA, pool.VaultB, pool.MintB
	case inputMint.Equals(pool.MintB):
		inputVault, outputVault, outputMint = pool.VaultB, pool.VaultA, pool.MintA
	default:
		return nil, fmt.Errorf("%w: input mint %s not in pool", ErrInvalidSwapAccounts, inputMint)
	}

	// other_amount_threshold and the price limit are left at zero.
	data, err := encode(&clmmSwapV2Args{
		Discriminator: clmmSwapV2Discriminator,
		Amount:        amountIn,
		IsBaseInput:   true,
	})
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(user.Owner).SIGNER().WRITE(),
		solana.Meta(pool.AmmConfig),
		solana.Meta(pool.Address).WRITE(),
		solana.Meta(user.Source).WRITE(),
		solana.Meta(user.Destination).WRITE(),
		solana.Meta(inputVault).WRITE(),
		solana.Meta(outputVault).WRITE(),
		solana.Meta(pool.ObservationState).WRITE(),
		solana.Meta(net.TokenProgramID),
		solana.Meta(net.Token2022ProgramID),
		solana.Meta(net.MemoProgramID),
		solana.Meta(inputMint),
		solana.Meta(outputMint),
		solana.Meta(tickArrays[0]).WRITE(),
		solana.Meta(pool.BitmapExtension).WRITE(),
		solana.Meta(tickArrays[1]).WRITE(),
		solana.Meta(tickArrays[2]).WRITE(),
	}
	return solana.NewInstruction(net.ClmmProgramID, accounts, data), nil
}

func encode(v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode instruction data: %w", err)
	}
	return buf.Bytes(), nil
}
