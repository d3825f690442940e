package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/market"
)

type fakeDiscovery struct {
	a, b       solana.PublicKey
	candidates []raydium.Candidate
	err        error
	pairCalls  int
}

func (f *fakeDiscovery) TopPools(context.Context, solana.PublicKey, solana.PublicKey, int) ([]raydium.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeDiscovery) TopPair(context.Context, solana.PublicKey, solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	f.pairCalls++
	return f.a, f.b, f.err
}

type mapLoader struct {
	pools map[solana.PublicKey]market.Pool
}

func (m *mapLoader) Load(_ context.Context, address solana.PublicKey) (market.Pool, error) {
	p, ok := m.pools[address]
	if !ok {
		return nil, blockchain.ErrNotFound
	}
	return p, nil
}

func (m *mapLoader) LoadPair(ctx context.Context, a, b solana.PublicKey) (market.Pool, market.Pool, error) {
	pa, err := m.Load(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	pb, err := m.Load(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}

type memStore struct {
	memRecorder
}

func (m *memStore) List(limit int) ([]*domain.Attempt, error) {
	if limit > 0 && len(m.attempts) > limit {
		return m.attempts[:limit], nil
	}
	return m.attempts, nil
}

func (m *memStore) ByBundle(bundleID string) (*domain.Attempt, error) {
	for _, a := range m.attempts {
		if a.Bundle != nil && a.Bundle.BundleID == bundleID {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: bundle %s", persistence.ErrAttemptNotFound, bundleID)
}

func newEngine(t *testing.T) (*Engine, *harness, *fakeDiscovery, *market.AmmV4Pool, *market.AmmV4Pool) {
	t.Helper()
	cheap, dear := cheapAndDear()
	h := newHarness(t, DefaultOptions())
	disc := &fakeDiscovery{a: dear.Address(), b: cheap.Address()}
	loader := &mapLoader{pools: map[solana.PublicKey]market.Pool{
		cheap.Address(): cheap,
		dear.Address():  dear,
	}}
	e := NewEngine(h.orch, loader, disc, nil, Defaults{
		BaseMint:     mainnet.SOLMint,
		BaseIn:       decimal.RequireFromString("0.01"),
		BuySlippage:  decimal.RequireFromString("0.1"),
		SellSlippage: decimal.RequireFromString("1"),
		Mode:         domain.SubmitSequential,
		PageSize:     2,
	})
	return e, h, disc, cheap, dear
}

func TestEngineRunDiscoversPair(t *testing.T) {
	e, h, disc, cheap, _ := newEngine(t)

	res, err := e.Run(context.Background(), RunRequest{TokenMint: newKey()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disc.pairCalls != 1 {
		t.Errorf("discovery called %d times", disc.pairCalls)
	}
	if res.Legs.Buy != cheap {
		t.Error("buy leg must be the cheaper pool")
	}
	if res.Attempt.Mode != domain.SubmitSequential || len(h.chain.submitted) != 2 {
		t.Fatalf("default mode not applied: %s, %d submissions", res.Attempt.Mode, len(h.chain.submitted))
	}
	if res.Buy.AmountInRaw != 10_000_000 {
		t.Errorf("default base in not applied: %d", res.Buy.AmountInRaw)
	}
}

func TestEngineRunExplicitPools(t *testing.T) {
	e, h, disc, cheap, dear := newEngine(t)

	res, err := e.Run(context.Background(), RunRequest{
		PoolA:  cheap.Address(),
		PoolB:  dear.Address(),
		BaseIn: decimal.RequireFromString("0.5"),
		Mode:   domain.SubmitBundled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disc.pairCalls != 0 {
		t.Error("discovery must be skipped when both pools are given")
	}
	if res.Buy.AmountInRaw != 500_000_000 {
		t.Errorf("base in %d", res.Buy.AmountInRaw)
	}
	if len(h.bundler.sent) != 1 {
		t.Error("requested mode not applied")
	}
}

func TestEngineRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *fakeDiscovery, r *RunRequest)
		wantErr error
	}{
		{
			name:    "no candidates",
			mutate:  func(d *fakeDiscovery, r *RunRequest) { d.err = raydium.ErrNoCandidates },
			wantErr: raydium.ErrNoCandidates,
		},
		{
			name: "same pool twice",
			mutate: func(d *fakeDiscovery, r *RunRequest) {
				r.PoolA = d.a
				r.PoolB = d.a
			},
			wantErr: ErrSamePool,
		},
		{
			name:    "unknown pool",
			mutate:  func(d *fakeDiscovery, r *RunRequest) { r.PoolA = newKey(); r.PoolB = newKey() },
			wantErr: blockchain.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, h, disc, _, _ := newEngine(t)
			req := RunRequest{TokenMint: newKey()}
			tt.mutate(disc, &req)

			if _, err := e.Run(context.Background(), req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if len(h.chain.submitted) != 0 {
				t.Fatal("nothing may be submitted")
			}
		})
	}

	e, _, _, _, _ := newEngine(t)
	if _, err := e.Run(context.Background(), RunRequest{}); err == nil {
		t.Fatal("missing token mint and pools must fail")
	}
}

func TestEnginePoolPrice(t *testing.T) {
	e, _, _, cheap, _ := newEngine(t)

	p, err := e.PoolPrice(context.Background(), cheap.Address())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Price.Equal(decimal.RequireFromString("0.019")) {
		t.Errorf("price %s", p.Price)
	}
	if !p.FeePercent.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("fee percent %s, want 0.25", p.FeePercent)
	}
	if !p.BaseMint.Equals(mainnet.SOLMint) || p.Kind != domain.PoolKindConstantProduct {
		t.Errorf("unexpected price record %+v", p)
	}

	if _, err := e.PoolPrice(context.Background(), newKey()); !errors.Is(err, blockchain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestEnginePrices(t *testing.T) {
	e, _, disc, cheap, dear := newEngine(t)
	disc.candidates = []raydium.Candidate{
		{ID: cheap.Address().String()},
		{ID: "not-a-key"},
		{ID: dear.Address().String()},
		{ID: newKey().String()},
	}

	prices, err := e.Prices(context.Background(), newKey())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("got %d prices, want 2", len(prices))
	}

	disc.candidates = []raydium.Candidate{{ID: "not-a-key"}}
	if _, err := e.Prices(context.Background(), newKey()); err == nil {
		t.Fatal("all candidates failing must surface an error")
	}
}

func TestEngineAttempts(t *testing.T) {
	e, _, _, _, _ := newEngine(t)
	got, err := e.Attempts(10)
	if err != nil || len(got) != 0 {
		t.Fatalf("without a journal: %v, %d", err, len(got))
	}

	store := &memStore{}
	e.journal = store
	e.orch.deps.Recorder = store
	if _, err := e.Run(context.Background(), RunRequest{TokenMint: newKey()}); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err = e.Attempts(10)
	if err != nil || len(got) != 1 {
		t.Fatalf("with a journal: %v, %d", err, len(got))
	}
}

func TestEngineAttemptByBundle(t *testing.T) {
	e, _, _, _, _ := newEngine(t)
	if _, err := e.AttemptByBundle("b1"); !errors.Is(err, persistence.ErrAttemptNotFound) {
		t.Fatalf("without a journal: %v", err)
	}

	store := &memStore{}
	e.journal = store
	e.orch.deps.Recorder = store
	res, err := e.Run(context.Background(), RunRequest{TokenMint: newKey(), Mode: domain.SubmitBundled})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := e.AttemptByBundle(res.Attempt.Bundle.BundleID)
	if err != nil || got.ID != res.Attempt.ID {
		t.Fatalf("lookup: %v, %+v", err, got)
	}
	if _, err := e.AttemptByBundle("missing"); !errors.Is(err, persistence.ErrAttemptNotFound) {
		t.Fatalf("unknown bundle: %v", err)
	}
}
