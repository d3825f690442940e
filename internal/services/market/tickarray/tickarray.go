// Package tickarray locates the initialized CLMM tick arrays a swap will cross.
package tickarray

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

const (
	TicksPerArray = 60
	MinTick       = -443636
	MaxTick       = 443636

	// Arrays tracked by one 512-bit bitmap.
	bitmapSize      = 512
	extensionBlocks = 14

	// RequiredArrays is the number of tick arrays passed to a swap.
	RequiredArrays = 3
)

var (
	ErrTickArraysUnavailable = errors.New("not enough initialized tick arrays")
	ErrInvalidTickSpacing    = errors.New("invalid tick spacing")
)

func ticksInArray(spacing uint16) int32 {
	return int32(spacing) * TicksPerArray
}

// StartIndex returns the first tick of the array containing tick.
func StartIndex(tick int32, spacing uint16) int32 {
	t := ticksInArray(spacing)
	idx := tick / t
	if tick < 0 && tick%t != 0 {
		idx--
	}
	return idx * t
}

// Bitmaps is the pool's default bitmap plus the optional extension.
type Bitmaps struct {
	Default   [16]uint64
	Extension *domain.ExtensionBitmaps
}

func FromState(state *domain.ConcentratedState) Bitmaps {
	return Bitmaps{Default: state.TickArrayBitmap, Extension: state.ExtensionBitmaps}
}

func bitSet(words []uint64, bit int32) bool {
	return words[bit/64]>>(uint(bit)%64)&1 == 1
}

// extensionOffset maps an array start outside the default range to its
// extension block and bit position.
func extensionOffset(start int32, spacing uint16) (block int32, bit int32) {
	perBitmap := ticksInArray(spacing) * bitmapSize
	abs := start
	if abs < 0 {
		abs = -abs
	}

	block = abs/perBitmap - 1
	if start < 0 && abs%perBitmap == 0 {
		block--
	}

	m := abs % perBitmap
	bit = m / ticksInArray(spacing)
	if start < 0 && m != 0 {
		bit = bitmapSize - bit
	}
	return block, bit
}

// IsInitialized reports whether the array starting at start has any
// initialized tick.
func (b Bitmaps) IsInitialized(start int32, spacing uint16) bool {
	idx := start / ticksInArray(spacing)
	if idx >= -bitmapSize && idx < bitmapSize {
		return bitSet(b.Default[:], idx+bitmapSize)
	}
	if b.Extension == nil {
		return false
	}

	block, bit := extensionOffset(start, spacing)
	if block < 0 || block >= extensionBlocks || bit < 0 || bit >= bitmapSize {
		return false
	}
	if start < 0 {
		return bitSet(b.Extension.Negative[block][:], bit)
	}
	return bitSet(b.Extension.Positive[block][:], bit)
}

// Resolve returns the start indices of the next RequiredArrays initialized
// arrays in the swap direction, beginning with the array holding tickCurrent.
// zeroForOne swaps move the price down.
func Resolve(b Bitmaps, tickCurrent int32, spacing uint16, zeroForOne bool) ([]int32, error) {
	if spacing == 0 {
		return nil, ErrInvalidTickSpacing
	}
	t := ticksInArray(spacing)
	lo := StartIndex(MinTick, spacing)
	hi := StartIndex(MaxTick, spacing)

	step := t
	if zeroForOne {
		step = -t
	}

	out := make([]int32, 0, RequiredArrays)
	for start := StartIndex(tickCurrent, spacing); start >= lo && start <= hi; start += step {
		if !b.IsInitialized(start, spacing) {
			continue
		}
		out = append(out, start)
		if len(out) == RequiredArrays {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: found %d from tick %d", ErrTickArraysUnavailable, len(out), tickCurrent)
}

func Address(programID, pool solana.PublicKey, start int32) (solana.PublicKey, error) {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(start))
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(common.TickArraySeed), pool[:], idx[:]},
		programID,
	)
	return addr, err
}

func ExtensionAddress(programID, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(common.TickArrayBitmapExtensionSeed), pool[:]},
		programID,
	)
	return addr, err
}

// Addresses resolves the arrays for a swap and derives their accounts.
func Addresses(programID solana.PublicKey, state *domain.ConcentratedState, zeroForOne bool) ([]solana.PublicKey, error) {
	starts, err := Resolve(FromState(state), state.TickCurrent, state.TickSpacing, zeroForOne)
	if err != nil {
		return nil, err
	}
	out := make([]solana.PublicKey, 0, len(starts))
	for _, s := range starts {
		addr, err := Address(programID, state.Address, s)
		if err != nil {
			return nil, fmt.Errorf("derive tick array %d: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}
