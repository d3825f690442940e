// Package quoter holds the pure pricing math for constant-product and
// concentrated-liquidity pools.
package quoter

import (
	"errors"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits kept on human amounts.
const AmountPrecision int32 = 9

const pricePrecision int32 = 40

var (
	ErrZeroReserve     = errors.New("zero reserve")
	ErrInvalidFee      = errors.New("invalid fee")
	ErrInvalidSlippage = errors.New("slippage must be within [0, 100]")
	ErrOverflow        = errors.New("amount exceeds u64")
)

// ClmmFeeDenominator is the unit of a CLMM trade fee rate, hundredths of a bip.
const ClmmFeeDenominator = 1_000_000

var (
	hundred = decimal.NewFromInt(100)
	clmmDen = decimal.NewFromInt(ClmmFeeDenominator)
	q128    = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)
)

// ConstantProductOut returns the raw output of swapping amountIn against the
// reserves. The fee is taken from the input, rounded up, and the output is
// rounded down.
func ConstantProductOut(amountIn, reserveIn, reserveOut, feeNumerator, feeDenominator uint64) (uint64, error) {
	if feeDenominator == 0 || feeNumerator >= feeDenominator {
		return 0, fmt.Errorf("%w: %d/%d", ErrInvalidFee, feeNumerator, feeDenominator)
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrZeroReserve
	}
	if amountIn == 0 {
		return 0, nil
	}

	in := uint256.NewInt(amountIn)
	den := uint256.NewInt(feeDenominator)

	fee := new(uint256.Int).Mul(in, uint256.NewInt(feeNumerator))
	fee.Add(fee, new(uint256.Int).SubUint64(den, 1))
	fee.Div(fee, den)

	effective := new(uint256.Int).Sub(in, fee)

	num := new(uint256.Int).Mul(uint256.NewInt(reserveOut), effective)
	denom := new(uint256.Int).Add(uint256.NewInt(reserveIn), effective)
	out := num.Div(num, denom)

	return out.Uint64(), nil
}

// FeePercent converts a numerator/denominator fee to a percentage.
func FeePercent(feeNumerator, feeDenominator uint64) (decimal.Decimal, error) {
	if feeDenominator == 0 {
		return decimal.Zero, ErrInvalidFee
	}
	return FromRaw(feeNumerator, 0).Mul(hundred).Div(FromRaw(feeDenominator, 0)), nil
}

// ClmmFeePercent converts a CLMM trade fee rate to a percentage.
func ClmmFeePercent(tradeFeeRate uint32) (decimal.Decimal, error) {
	if tradeFeeRate >= ClmmFeeDenominator {
		return decimal.Zero, fmt.Errorf("%w: trade fee rate %d", ErrInvalidFee, tradeFeeRate)
	}
	return decimal.NewFromInt(int64(tradeFeeRate)).Mul(hundred).Div(clmmDen), nil
}

// ClmmAmountAfterFee removes the trade fee from an input amount.
func ClmmAmountAfterFee(amountIn decimal.Decimal, tradeFeeRate uint32) (decimal.Decimal, error) {
	if tradeFeeRate >= ClmmFeeDenominator {
		return decimal.Zero, fmt.Errorf("%w: trade fee rate %d", ErrInvalidFee, tradeFeeRate)
	}
	keep := decimal.NewFromInt(int64(ClmmFeeDenominator - tradeFeeRate))
	return amountIn.Mul(keep).Div(clmmDen), nil
}

// ConstantProductQuote is ConstantProductOut on human amounts.
func ConstantProductQuote(amountIn decimal.Decimal, inDecimals, outDecimals uint8, reserveIn, reserveOut, feeNumerator, feeDenominator uint64) (decimal.Decimal, error) {
	raw, err := ToRaw(amountIn, inDecimals)
	if err != nil {
		return decimal.Zero, err
	}
	out, err := ConstantProductOut(raw, reserveIn, reserveOut, feeNumerator, feeDenominator)
	if err != nil {
		return decimal.Zero, err
	}
	return FromRaw(out, outDecimals).Round(AmountPrecision), nil
}

// ConstantProductPrice returns reserveBase/reserveQuote in human units.
func ConstantProductPrice(reserveBase, reserveQuote uint64, baseDecimals, quoteDecimals uint8) (decimal.Decimal, error) {
	if reserveBase == 0 || reserveQuote == 0 {
		return decimal.Zero, ErrZeroReserve
	}
	base := FromRaw(reserveBase, baseDecimals)
	quote := FromRaw(reserveQuote, quoteDecimals)
	return base.DivRound(quote, pricePrecision), nil
}

func uint128ToUint256(v bin.Uint128) *uint256.Int {
	out := uint256.NewInt(v.Hi)
	out.Lsh(out, 64)
	return out.Or(out, uint256.NewInt(v.Lo))
}

// ClmmPrice returns the price of token A in token B, (sqrtPriceX64 / 2^64)^2
// scaled by 10^(decimalsA - decimalsB).
func ClmmPrice(sqrtPriceX64 bin.Uint128, decimalsA, decimalsB uint8) (decimal.Decimal, error) {
	sqrt := uint128ToUint256(sqrtPriceX64)
	if sqrt.IsZero() {
		return decimal.Zero, ErrZeroReserve
	}
	sq := new(uint256.Int).Mul(sqrt, sqrt)
	price := decimal.NewFromBigInt(sq.ToBig(), 0).DivRound(q128, pricePrecision)
	return price.Shift(int32(decimalsA) - int32(decimalsB)), nil
}

// SlippageFloor returns floor(amount * (100 - slippage) / 100) for an amount
// already expressed in raw units.
func SlippageFloor(amount, slippage decimal.Decimal) (uint64, error) {
	if slippage.IsNegative() || slippage.GreaterThan(hundred) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSlippage, slippage)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount)
	}
	v := amount.Mul(hundred.Sub(slippage)).Shift(-2).Floor()
	return toUint64(v)
}

// ToRaw converts a human amount to raw units, rounding down.
func ToRaw(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount)
	}
	return toUint64(amount.Shift(int32(decimals)).Floor())
}

func FromRaw(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}

func toUint64(v decimal.Decimal) (uint64, error) {
	b := v.BigInt()
	if !b.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, v)
	}
	return b.Uint64(), nil
}
