package arbitrage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/market"
	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

var ErrSamePool = errors.New("both legs resolve to the same pool")

type Discovery interface {
	TopPools(ctx context.Context, mint, quoteMint solana.PublicKey, pageSize int) ([]raydium.Candidate, error)
	TopPair(ctx context.Context, mint, quoteMint solana.PublicKey) (solana.PublicKey, solana.PublicKey, error)
}

type PoolLoader interface {
	Load(ctx context.Context, address solana.PublicKey) (market.Pool, error)
	LoadPair(ctx context.Context, a, b solana.PublicKey) (market.Pool, market.Pool, error)
}

type AttemptStore interface {
	Recorder
	List(limit int) ([]*domain.Attempt, error)
	ByBundle(bundleID string) (*domain.Attempt, error)
}

// Defaults fill the fields a RunRequest leaves empty.
type Defaults struct {
	BaseMint     solana.PublicKey
	BaseIn       decimal.Decimal
	BuySlippage  decimal.Decimal
	SellSlippage decimal.Decimal
	Mode         domain.SubmitMode
	PageSize     int
}

// RunRequest names the token to trade against the base mint. Zero pool
// addresses are filled from discovery.
type RunRequest struct {
	TokenMint solana.PublicKey
	PoolA     solana.PublicKey
	PoolB     solana.PublicKey
	BaseIn    decimal.Decimal
	Mode      domain.SubmitMode
}

// Engine ties discovery, pool loading and the orchestrator together for the
// HTTP surface and the CLI.
type Engine struct {
	orch      *Orchestrator
	loader    PoolLoader
	discovery Discovery
	journal   AttemptStore
	defaults  Defaults
}

func NewEngine(orch *Orchestrator, loader PoolLoader, discovery Discovery, journal AttemptStore, defaults Defaults) *Engine {
	return &Engine{
		orch:      orch,
		loader:    loader,
		discovery: discovery,
		journal:   journal,
		defaults:  defaults,
	}
}

func (e *Engine) BaseMint() solana.PublicKey {
	return e.defaults.BaseMint
}

func (e *Engine) Run(ctx context.Context, req RunRequest) (*Result, error) {
	a, b, err := e.resolvePair(ctx, req)
	if err != nil {
		return nil, err
	}
	poolA, poolB, err := e.loader.LoadPair(ctx, a, b)
	if err != nil {
		return nil, err
	}

	baseIn := req.BaseIn
	if baseIn.IsZero() {
		baseIn = e.defaults.BaseIn
	}
	mode := req.Mode
	if mode == "" {
		mode = e.defaults.Mode
	}

	return e.orch.Run(ctx, Request{
		PoolA:        poolA,
		PoolB:        poolB,
		BaseMint:     e.defaults.BaseMint,
		BaseIn:       baseIn,
		BuySlippage:  e.defaults.BuySlippage,
		SellSlippage: e.defaults.SellSlippage,
		Mode:         mode,
	})
}

func (e *Engine) resolvePair(ctx context.Context, req RunRequest) (solana.PublicKey, solana.PublicKey, error) {
	a, b := req.PoolA, req.PoolB
	if a.IsZero() || b.IsZero() {
		if req.TokenMint.IsZero() {
			return a, b, errors.New("token mint required when pools are not given")
		}
		da, db, err := e.discovery.TopPair(ctx, req.TokenMint, e.defaults.BaseMint)
		if err != nil {
			return a, b, err
		}
		if a.IsZero() {
			a = da
		}
		if b.IsZero() {
			b = db
			if b.Equals(a) {
				b = da
			}
		}
	}
	if a.Equals(b) {
		return a, b, fmt.Errorf("%w: %s", ErrSamePool, a)
	}
	return a, b, nil
}

// Candidates lists discovered pools for mint paired with the base mint.
func (e *Engine) Candidates(ctx context.Context, mint solana.PublicKey) ([]raydium.Candidate, error) {
	return e.discovery.TopPools(ctx, mint, e.defaults.BaseMint, e.defaults.PageSize)
}

// PoolPrice loads the pool at address and prices it in the base mint.
func (e *Engine) PoolPrice(ctx context.Context, address solana.PublicKey) (*domain.PoolPrice, error) {
	pool, err := e.loader.Load(ctx, address)
	if err != nil {
		return nil, err
	}
	quoteMint, err := pool.QuoteMint(e.defaults.BaseMint)
	if err != nil {
		return nil, err
	}
	price, err := pool.Price(e.defaults.BaseMint)
	if err != nil {
		return nil, err
	}
	fee, err := feePercent(pool.State())
	if err != nil {
		return nil, err
	}
	return &domain.PoolPrice{
		Pool:       address,
		Kind:       pool.Kind(),
		BaseMint:   e.defaults.BaseMint,
		QuoteMint:  quoteMint,
		Price:      price,
		FeePercent: fee,
	}, nil
}

func feePercent(state domain.PoolState) (decimal.Decimal, error) {
	switch s := state.(type) {
	case *domain.ConstantProductState:
		return quoter.FeePercent(s.SwapFeeNumerator, s.SwapFeeDenominator)
	case *domain.ConcentratedState:
		return quoter.ClmmFeePercent(s.TradeFeeRate)
	default:
		return decimal.Zero, fmt.Errorf("unsupported pool state %T", state)
	}
}

// Prices prices every discovered pool for mint. Pools that fail to load are skipped.
func (e *Engine) Prices(ctx context.Context, mint solana.PublicKey) ([]*domain.PoolPrice, error) {
	candidates, err := e.Candidates(ctx, mint)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.PoolPrice, 0, len(candidates))
	var lastErr error
	for _, c := range candidates {
		addr, err := c.Address()
		if err != nil {
			lastErr = err
			continue
		}
		p, err := e.PoolPrice(ctx, addr)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// Attempts lists journaled attempts, newest first.
func (e *Engine) Attempts(limit int) ([]*domain.Attempt, error) {
	if e.journal == nil {
		return []*domain.Attempt{}, nil
	}
	return e.journal.List(limit)
}

// AttemptByBundle resolves the journaled attempt that submitted bundleID.
func (e *Engine) AttemptByBundle(bundleID string) (*domain.Attempt, error) {
	if e.journal == nil {
		return nil, fmt.Errorf("%w: journal disabled", persistence.ErrAttemptNotFound)
	}
	return e.journal.ByBundle(bundleID)
}
