// Package codec decodes Raydium pool accounts and their companion accounts.
package codec

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

var (
	ErrUnparseable     = errors.New("unparseable account data")
	ErrUnknownPoolType = errors.New("unknown pool type")
)

var (
	PoolStateDiscriminator       = accountDiscriminator("PoolState")
	BitmapExtensionDiscriminator = accountDiscriminator("TickArrayBitmapExtension")
	AmmConfigDiscriminator       = accountDiscriminator("AmmConfig")
)

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

func decode(name string, data []byte, size int, v interface{}) (err error) {
	if len(data) < size {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrUnparseable, name, size, len(data))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrUnparseable, name, r)
		}
	}()
	if err := bin.NewBinDecoder(data[:size]).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnparseable, name, err)
	}
	return nil
}

func DecodeAmmV4(data []byte) (*AmmV4Layout, error) {
	var out AmmV4Layout
	if err := decode("amm v4", data, AmmV4Size, &out); err != nil {
		return nil, err
	}
	if out.SwapFeeDenominator == 0 {
		return nil, fmt.Errorf("%w: amm v4 swap fee denominator is zero", ErrUnparseable)
	}
	return &out, nil
}

func DecodeMarketV3(data []byte) (*MarketV3Layout, error) {
	var out MarketV3Layout
	if err := decode("market v3", data, MarketV3Size, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func DecodeClmmPool(data []byte) (*ClmmPoolLayout, error) {
	if len(data) >= 8 && !bytes.Equal(data[:8], PoolStateDiscriminator[:]) {
		return nil, fmt.Errorf("%w: clmm pool discriminator mismatch", ErrUnparseable)
	}
	var out ClmmPoolLayout
	if err := decode("clmm pool", data, ClmmPoolSize, &out); err != nil {
		return nil, err
	}
	if out.TickSpacing == 0 {
		return nil, fmt.Errorf("%w: clmm tick spacing is zero", ErrUnparseable)
	}
	return &out, nil
}

func DecodeBitmapExtension(data []byte) (*BitmapExtensionLayout, error) {
	if len(data) >= 8 && !bytes.Equal(data[:8], BitmapExtensionDiscriminator[:]) {
		return nil, fmt.Errorf("%w: bitmap extension discriminator mismatch", ErrUnparseable)
	}
	var out BitmapExtensionLayout
	if err := decode("bitmap extension", data, BitmapExtensionSize, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func DecodeAmmConfig(data []byte) (*AmmConfigLayout, error) {
	if len(data) >= 8 && !bytes.Equal(data[:8], AmmConfigDiscriminator[:]) {
		return nil, fmt.Errorf("%w: amm config discriminator mismatch", ErrUnparseable)
	}
	var out AmmConfigLayout
	if err := decode("amm config", data, AmmConfigSize, &out); err != nil {
		return nil, err
	}
	if out.TradeFeeRate >= 1_000_000 {
		return nil, fmt.Errorf("%w: trade fee rate %d", ErrUnparseable, out.TradeFeeRate)
	}
	return &out, nil
}

// Decoded holds exactly one of the pool layouts.
type Decoded struct {
	Kind  domain.PoolKind
	AmmV4 *AmmV4Layout
	Clmm  *ClmmPoolLayout
}

type Classifier struct {
	ammV4 solana.PublicKey
	clmm  solana.PublicKey
}

func NewClassifier(network common.Network) *Classifier {
	return &Classifier{ammV4: network.AmmV4ProgramID, clmm: network.ClmmProgramID}
}

// Classify picks the decoder by owning program.
func (c *Classifier) Classify(owner solana.PublicKey, data []byte) (*Decoded, error) {
	switch {
	case owner.Equals(c.ammV4):
		layout, err := DecodeAmmV4(data)
		if err != nil {
			return nil, err
		}
		return &Decoded{Kind: domain.PoolKindConstantProduct, AmmV4: layout}, nil
	case owner.Equals(c.clmm):
		layout, err := DecodeClmmPool(data)
		if err != nil {
			return nil, err
		}
		return &Decoded{Kind: domain.PoolKindConcentrated, Clmm: layout}, nil
	default:
		return nil, fmt.Errorf("%w: owner %s", ErrUnknownPoolType, owner)
	}
}
