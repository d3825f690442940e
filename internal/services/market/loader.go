package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/metrics"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/codec"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/tickarray"
)

var ErrInvalidPool = errors.New("invalid pool state")

// Market fields read by swaps are fixed at market creation.
const marketCacheSize = 256

type marketInfo struct {
	layout    *codec.MarketV3Layout
	authority solana.PublicKey
}

// ChainReader is the part of the chain client the loader needs.
type ChainReader interface {
	FetchAccount(ctx context.Context, address solana.PublicKey) (*domain.AccountBlob, error)
	FetchTokenBalance(ctx context.Context, account solana.PublicKey) (*domain.TokenBalance, error)
}

// Loader fetches and decodes pools into Pool handles.
type Loader struct {
	chain      ChainReader
	classifier *codec.Classifier
	net        common.Network
	markets    *lruCache[solana.PublicKey, *marketInfo]
}

func NewLoader(chain ChainReader, net common.Network) *Loader {
	return &Loader{
		chain:      chain,
		classifier: codec.NewClassifier(net),
		net:        net,
		markets:    newLRUCache[solana.PublicKey, *marketInfo](marketCacheSize),
	}
}

func (l *Loader) market(ctx context.Context, id solana.PublicKey) (*marketInfo, error) {
	if m, ok := l.markets.Get(id); ok {
		return m, nil
	}
	blob, err := l.chain.FetchAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", id, err)
	}
	layout, err := codec.DecodeMarketV3(blob.Data)
	if err != nil {
		return nil, err
	}
	authority, err := builder.MarketAuthority(l.net, id, layout.VaultSignerNonce)
	if err != nil {
		return nil, err
	}
	m := &marketInfo{layout: layout, authority: authority}
	l.markets.Set(id, m)
	return m, nil
}

func (l *Loader) Load(ctx context.Context, address solana.PublicKey) (Pool, error) {
	blob, err := l.chain.FetchAccount(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch pool %s: %w", address, err)
	}

	decoded, err := l.classifier.Classify(blob.Owner, blob.Data)
	if err != nil {
		metrics.PoolLoads.WithLabelValues("unknown", "error").Inc()
		return nil, fmt.Errorf("pool %s: %w", address, err)
	}

	var pool Pool
	switch decoded.Kind {
	case domain.PoolKindConstantProduct:
		pool, err = l.loadAmmV4(ctx, address, decoded.AmmV4)
	case domain.PoolKindConcentrated:
		pool, err = l.loadClmm(ctx, address, decoded.Clmm)
	default:
		err = codec.ErrUnknownPoolType
	}
	if err != nil {
		metrics.PoolLoads.WithLabelValues(decoded.Kind.String(), "error").Inc()
		return nil, fmt.Errorf("pool %s: %w", address, err)
	}

	metrics.PoolLoads.WithLabelValues(decoded.Kind.String(), "ok").Inc()
	return pool, nil
}

// LoadPair loads both pools concurrently.
func (l *Loader) LoadPair(ctx context.Context, a, b solana.PublicKey) (Pool, Pool, error) {
	start := time.Now()
	defer func() { metrics.PoolLoadDuration.Observe(time.Since(start).Seconds()) }()

	var poolA, poolB Pool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		poolA, err = l.Load(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		poolB, err = l.Load(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return poolA, poolB, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func (l *Loader) loadAmmV4(ctx context.Context, address solana.PublicKey, layout *codec.AmmV4Layout) (Pool, error) {
	if layout.BaseMint.Equals(layout.QuoteMint) {
		return nil, fmt.Errorf("%w: base mint equals quote mint", ErrInvalidPool)
	}

	var (
		mkt          *marketInfo
		baseBalance  *domain.TokenBalance
		quoteBalance *domain.TokenBalance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mkt, err = l.market(gctx, layout.MarketID)
		return err
	})
	g.Go(func() error {
		var err error
		baseBalance, err = l.chain.FetchTokenBalance(gctx, layout.BaseVault)
		return err
	})
	g.Go(func() error {
		var err error
		quoteBalance, err = l.chain.FetchTokenBalance(gctx, layout.QuoteVault)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	market := mkt.layout
	state := &domain.ConstantProductState{
		Address:            address,
		BaseMint:           layout.BaseMint,
		QuoteMint:          layout.QuoteMint,
		BaseDecimals:       uint8(layout.BaseDecimal),
		QuoteDecimals:      uint8(layout.QuoteDecimal),
		BaseVault:          layout.BaseVault,
		QuoteVault:         layout.QuoteVault,
		BaseReserve:        saturatingSub(baseBalance.Amount, layout.BaseNeedTakePnl),
		QuoteReserve:       saturatingSub(quoteBalance.Amount, layout.QuoteNeedTakePnl),
		SwapFeeNumerator:   layout.SwapFeeNumerator,
		SwapFeeDenominator: layout.SwapFeeDenominator,
		OpenOrders:         layout.OpenOrders,
		TargetOrders:       layout.TargetOrders,
		MarketID:           layout.MarketID,
		MarketProgramID:    layout.MarketProgramID,
		MarketBids:         market.Bids,
		MarketAsks:         market.Asks,
		MarketEventQueue:   market.EventQueue,
		MarketBaseVault:    market.BaseVault,
		MarketQuoteVault:   market.QuoteVault,
		VaultSignerNonce:   market.VaultSignerNonce,
		MarketAuthority:    mkt.authority,
	}

	log.Debug().
		Str("pool", address.String()).
		Uint64("baseReserve", state.BaseReserve).
		Uint64("quoteReserve", state.QuoteReserve).
		Msg("[Loader] loaded amm v4 pool")
	return NewAmmV4Pool(l.net, state), nil
}

func (l *Loader) loadClmm(ctx context.Context, address solana.PublicKey, layout *codec.ClmmPoolLayout) (Pool, error) {
	if layout.MintA.Equals(layout.MintB) {
		return nil, fmt.Errorf("%w: mint a equals mint b", ErrInvalidPool)
	}
	if layout.SqrtPriceX64.Lo == 0 && layout.SqrtPriceX64.Hi == 0 {
		return nil, fmt.Errorf("%w: zero sqrt price", ErrInvalidPool)
	}

	extAddr, err := tickarray.ExtensionAddress(l.net.ClmmProgramID, address)
	if err != nil {
		return nil, err
	}

	var (
		ext     *domain.ExtensionBitmaps
		feeRate uint32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		blob, err := l.chain.FetchAccount(gctx, extAddr)
		switch {
		case errors.Is(err, blockchain.ErrNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("fetch bitmap extension: %w", err)
		}
		extLayout, err := codec.DecodeBitmapExtension(blob.Data)
		if err != nil {
			return err
		}
		ext = &domain.ExtensionBitmaps{Positive: extLayout.Positive, Negative: extLayout.Negative}
		return nil
	})
	g.Go(func() error {
		blob, err := l.chain.FetchAccount(gctx, layout.AmmConfig)
		if err != nil {
			return fmt.Errorf("fetch amm config %s: %w", layout.AmmConfig, err)
		}
		cfg, err := codec.DecodeAmmConfig(blob.Data)
		if err != nil {
			return err
		}
		feeRate = cfg.TradeFeeRate
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	state := &domain.ConcentratedState{
		Address:          address,
		MintA:            layout.MintA,
		MintB:            layout.MintB,
		DecimalsA:        layout.DecimalsA,
		DecimalsB:        layout.DecimalsB,
		VaultA:           layout.VaultA,
		VaultB:           layout.VaultB,
		AmmConfig:        layout.AmmConfig,
		ObservationState: layout.ObservationID,
		TradeFeeRate:     feeRate,
		SqrtPriceX64:     layout.SqrtPriceX64,
		Liquidity:        layout.Liquidity,
		TickCurrent:      layout.TickCurrent,
		TickSpacing:      layout.TickSpacing,
		TickArrayBitmap:  layout.TickArrayBitmap,
		BitmapExtension:  extAddr,
		ExtensionBitmaps: ext,
	}

	log.Debug().
		Str("pool", address.String()).
		Int32("tick", state.TickCurrent).
		Bool("extension", ext != nil).
		Uint32("tradeFeeRate", feeRate).
		Msg("[Loader] loaded clmm pool")
	return NewClmmPool(l.net, state), nil
}
