package market

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/codec"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/tickarray"
)

type fakeChain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*domain.AccountBlob
	balances map[solana.PublicKey]uint64
	failing  map[solana.PublicKey]error
	fetches  map[solana.PublicKey]int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts: map[solana.PublicKey]*domain.AccountBlob{},
		balances: map[solana.PublicKey]uint64{},
		failing:  map[solana.PublicKey]error{},
		fetches:  map[solana.PublicKey]int{},
	}
}

func (f *fakeChain) FetchAccount(_ context.Context, address solana.PublicKey) (*domain.AccountBlob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[address]++
	if err, ok := f.failing[address]; ok {
		return nil, err
	}
	blob, ok := f.accounts[address]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", address, blockchain.ErrNotFound)
	}
	return blob, nil
}

func (f *fakeChain) FetchTokenBalance(_ context.Context, account solana.PublicKey) (*domain.TokenBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failing[account]; ok {
		return nil, err
	}
	amount, ok := f.balances[account]
	if !ok {
		return nil, blockchain.ErrNotFound
	}
	return &domain.TokenBalance{Amount: amount}, nil
}

func putKey(buf []byte, off int, key solana.PublicKey) {
	copy(buf[off:off+32], key[:])
}

type ammFixture struct {
	pool, base, quote, market, baseVault, quoteVault solana.PublicKey
	nonce                                            uint64
}

// validNonce finds a vault signer nonce whose authority is off curve.
func validNonce(t *testing.T, market solana.PublicKey) uint64 {
	t.Helper()
	for nonce := uint64(0); nonce < 256; nonce++ {
		if _, err := builder.MarketAuthority(mainnet, market, nonce); err == nil {
			return nonce
		}
	}
	t.Fatal("no valid nonce for market")
	return 0
}

func seedAmmPool(t *testing.T, chain *fakeChain) ammFixture {
	t.Helper()
	fx := ammFixture{
		pool:       newKey(),
		base:       mainnet.SOLMint,
		quote:      newKey(),
		market:     newKey(),
		baseVault:  newKey(),
		quoteVault: newKey(),
	}
	fx.nonce = validNonce(t, fx.market)

	buf := make([]byte, codec.AmmV4Size)
	binary.LittleEndian.PutUint64(buf[32:], 9)
	binary.LittleEndian.PutUint64(buf[40:], 6)
	binary.LittleEndian.PutUint64(buf[176:], 25)
	binary.LittleEndian.PutUint64(buf[184:], 10000)
	binary.LittleEndian.PutUint64(buf[192:], 1_000)
	binary.LittleEndian.PutUint64(buf[200:], 500)
	putKey(buf, 336, fx.baseVault)
	putKey(buf, 368, fx.quoteVault)
	putKey(buf, 400, fx.base)
	putKey(buf, 432, fx.quote)
	putKey(buf, 528, fx.market)
	putKey(buf, 560, mainnet.OpenBookProgramID)
	chain.accounts[fx.pool] = &domain.AccountBlob{Address: fx.pool, Owner: mainnet.AmmV4ProgramID, Data: buf}

	market := make([]byte, codec.MarketV3Size)
	putKey(market, 13, fx.market)
	binary.LittleEndian.PutUint64(market[45:], fx.nonce)
	chain.accounts[fx.market] = &domain.AccountBlob{Address: fx.market, Owner: mainnet.OpenBookProgramID, Data: market}

	chain.balances[fx.baseVault] = 1_000_000_000_001_000
	chain.balances[fx.quoteVault] = 50_000_000_000_500
	return fx
}

func seedClmmPool(chain *fakeChain) (pool, mintB solana.PublicKey) {
	pool, mintB = newKey(), newKey()
	ammConfig := newKey()
	cfg := make([]byte, codec.AmmConfigSize)
	copy(cfg, codec.AmmConfigDiscriminator[:])
	binary.LittleEndian.PutUint32(cfg[47:], 2500)
	chain.accounts[ammConfig] = &domain.AccountBlob{Address: ammConfig, Data: cfg}

	buf := make([]byte, codec.ClmmPoolSize)
	copy(buf, codec.PoolStateDiscriminator[:])
	putKey(buf, 9, ammConfig)
	putKey(buf, 73, mainnet.SOLMint)
	putKey(buf, 105, mintB)
	buf[233] = 9
	buf[234] = 6
	binary.LittleEndian.PutUint16(buf[235:], 1)
	binary.LittleEndian.PutUint64(buf[261:], 1)
	// arrays -2 through 2
	binary.LittleEndian.PutUint64(buf[904+8*7:], 0b11<<62)
	binary.LittleEndian.PutUint64(buf[904+8*8:], 0b11)
	chain.accounts[pool] = &domain.AccountBlob{Address: pool, Owner: mainnet.ClmmProgramID, Data: buf}
	return pool, mintB
}

func TestLoadAmmV4Pool(t *testing.T) {
	chain := newFakeChain()
	fx := seedAmmPool(t, chain)

	pool, err := NewLoader(chain, mainnet).Load(context.Background(), fx.pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Kind() != domain.PoolKindConstantProduct {
		t.Fatalf("kind %s", pool.Kind())
	}

	state := pool.State().(*domain.ConstantProductState)
	if state.BaseReserve != 1_000_000_000_000_000 || state.QuoteReserve != 50_000_000_000_000 {
		t.Fatalf("reserves %d/%d must exclude need-take-pnl", state.BaseReserve, state.QuoteReserve)
	}
	wantAuthority, _ := builder.MarketAuthority(mainnet, fx.market, fx.nonce)
	if !state.MarketAuthority.Equals(wantAuthority) {
		t.Fatal("market authority not derived from vault signer nonce")
	}

	price, err := pool.Price(fx.base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(d("0.02")) {
		t.Fatalf("price %s, want 0.02", price)
	}
}

func TestLoadAmmV4FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(fx ammFixture, chain *fakeChain)
		wantErr error
	}{
		{
			name:    "market missing",
			mutate:  func(fx ammFixture, chain *fakeChain) { delete(chain.accounts, fx.market) },
			wantErr: blockchain.ErrNotFound,
		},
		{
			name: "vault balance unavailable",
			mutate: func(fx ammFixture, chain *fakeChain) {
				chain.failing[fx.quoteVault] = blockchain.ErrUnavailable
			},
			wantErr: blockchain.ErrUnavailable,
		},
		{
			name: "truncated market",
			mutate: func(fx ammFixture, chain *fakeChain) {
				chain.accounts[fx.market].Data = chain.accounts[fx.market].Data[:100]
			},
			wantErr: codec.ErrUnparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain()
			fx := seedAmmPool(t, chain)
			tt.mutate(fx, chain)

			_, err := NewLoader(chain, mainnet).Load(context.Background(), fx.pool)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadClmmWithoutExtension(t *testing.T) {
	chain := newFakeChain()
	address, mintB := seedClmmPool(chain)

	pool, err := NewLoader(chain, mainnet).Load(context.Background(), address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := pool.State().(*domain.ConcentratedState)
	if state.ExtensionBitmaps != nil {
		t.Fatal("missing extension must load as empty")
	}
	if state.TradeFeeRate != 2500 {
		t.Fatalf("trade fee rate %d, want 2500 from the amm config", state.TradeFeeRate)
	}

	price, err := pool.Price(mintB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(d("1000")) {
		t.Fatalf("price %s, want 1000", price)
	}

	_, err = pool.BuildSwapInstruction(SwapParams{
		AmountIn:    1,
		Source:      newKey(),
		Destination: newKey(),
		Owner:       newKey(),
		InputMint:   mainnet.SOLMint,
	})
	if err != nil {
		t.Fatalf("swap with three initialized arrays: %v", err)
	}
}

func TestLoadClmmExtensionFetchError(t *testing.T) {
	chain := newFakeChain()
	address, _ := seedClmmPool(chain)
	extAddr, err := tickarray.ExtensionAddress(mainnet.ClmmProgramID, address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain.failing[extAddr] = blockchain.ErrUnavailable

	if _, err := NewLoader(chain, mainnet).Load(context.Background(), address); !errors.Is(err, blockchain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLoadClmmMissingAmmConfig(t *testing.T) {
	chain := newFakeChain()
	address, _ := seedClmmPool(chain)
	var ammConfig solana.PublicKey
	copy(ammConfig[:], chain.accounts[address].Data[9:41])
	delete(chain.accounts, ammConfig)

	if _, err := NewLoader(chain, mainnet).Load(context.Background(), address); !errors.Is(err, blockchain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadUnknownOwner(t *testing.T) {
	chain := newFakeChain()
	address := newKey()
	chain.accounts[address] = &domain.AccountBlob{Address: address, Owner: newKey(), Data: make([]byte, 10)}

	_, err := NewLoader(chain, mainnet).Load(context.Background(), address)
	if !errors.Is(err, codec.ErrUnknownPoolType) {
		t.Fatalf("expected ErrUnknownPoolType, got %v", err)
	}
}

func TestLoadPair(t *testing.T) {
	chain := newFakeChain()
	fx := seedAmmPool(t, chain)
	clmm, _ := seedClmmPool(chain)

	a, b, err := NewLoader(chain, mainnet).LoadPair(context.Background(), fx.pool, clmm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind() != domain.PoolKindConstantProduct || b.Kind() != domain.PoolKindConcentrated {
		t.Fatalf("kinds %s/%s", a.Kind(), b.Kind())
	}

	missing := newKey()
	if _, _, err := NewLoader(chain, mainnet).LoadPair(context.Background(), fx.pool, missing); !errors.Is(err, blockchain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoaderCachesMarket(t *testing.T) {
	chain := newFakeChain()
	fx := seedAmmPool(t, chain)
	loader := NewLoader(chain, mainnet)

	for i := 0; i < 3; i++ {
		if _, err := loader.Load(context.Background(), fx.pool); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	if got := chain.fetches[fx.market]; got != 1 {
		t.Errorf("market fetched %d times, want 1", got)
	}
	if got := chain.fetches[fx.pool]; got != 3 {
		t.Errorf("pool fetched %d times, want 3", got)
	}
}
