package blockchain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/retry"
)

type fakeTransport struct {
	mu sync.Mutex

	accountErrs []error
	account     *domain.AccountBlob
	accountHits int

	balance *tokenAmount
	owned   []solana.PublicKey

	blockhash    solana.Hash
	blockhashErr error
	blockhashHit int

	inFlight    int32
	maxInFlight int32
	hold        time.Duration
}

func (f *fakeTransport) getAccount(ctx context.Context, address solana.PublicKey) (*domain.AccountBlob, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInFlight, m, n) {
			break
		}
	}
	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountHits++
	if len(f.accountErrs) > 0 {
		err := f.accountErrs[0]
		f.accountErrs = f.accountErrs[1:]
		return nil, err
	}
	return f.account, nil
}

func (f *fakeTransport) getTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*tokenAmount, error) {
	return f.balance, nil
}

func (f *fakeTransport) getLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockhashHit++
	return f.blockhash, 100, f.blockhashErr
}

func (f *fakeTransport) sendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{1}, nil
}

func (f *fakeTransport) getTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	return f.owned, nil
}

func (f *fakeTransport) getMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return 2039280, nil
}

func (f *fakeTransport) simulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error) {
	return &domain.SimulationResult{Success: true, UnitsConsumed: 120000}, nil
}

func (f *fakeTransport) getRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error) {
	return []uint64{0, 5000, 10000}, nil
}

func testClient(t *fakeTransport) *Client {
	return newClient(t, Options{
		Timeout:     time.Second,
		MaxAttempts: 5,
		Backoff:     time.Millisecond,
		Concurrency: 5,
	})
}

func TestFetchAccountRetriesTransientErrors(t *testing.T) {
	blob := &domain.AccountBlob{Data: []byte{1, 2, 3}}
	ft := &fakeTransport{
		accountErrs: []error{
			errors.New("rpc call getAccountInfo() on https://x: 429 Too Many Requests"),
			errors.New("connection reset by peer"),
		},
		account: blob,
	}

	got, err := testClient(ft).FetchAccount(context.Background(), solana.PublicKey{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != blob {
		t.Fatal("unexpected blob returned")
	}
	if ft.accountHits != 3 {
		t.Fatalf("hits = %d, want 3", ft.accountHits)
	}
}

func TestFetchAccountNotFoundIsNotRetried(t *testing.T) {
	ft := &fakeTransport{accountErrs: []error{ErrNotFound}}

	_, err := testClient(ft).FetchAccount(context.Background(), solana.PublicKey{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatal("not found must not be reported as unavailable")
	}
	if ft.accountHits != 1 {
		t.Fatalf("hits = %d, want 1", ft.accountHits)
	}
}

func TestFetchAccountExhaustion(t *testing.T) {
	errs := make([]error, 5)
	for i := range errs {
		errs[i] = fmt.Errorf("attempt %d: 429", i)
	}
	ft := &fakeTransport{accountErrs: errs}

	_, err := testClient(ft).FetchAccount(context.Background(), solana.PublicKey{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected retry.ErrExhausted, got %v", err)
	}
	if ft.accountHits != 5 {
		t.Fatalf("hits = %d, want 5", ft.accountHits)
	}
}

func TestFetchAccountCancelled(t *testing.T) {
	ft := &fakeTransport{accountErrs: []error{errors.New("boom"), errors.New("boom")}}
	c := newClient(ft, Options{Timeout: time.Second, MaxAttempts: 5, Backoff: time.Hour, Concurrency: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.FetchAccount(ctx, solana.PublicKey{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("backoff ignored cancellation")
	}
}

func TestSemaphoreBoundsInFlightCalls(t *testing.T) {
	ft := &fakeTransport{account: &domain.AccountBlob{}, hold: 10 * time.Millisecond}
	c := newClient(ft, Options{Timeout: time.Second, MaxAttempts: 1, Concurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FetchAccount(context.Background(), solana.PublicKey{}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak := atomic.LoadInt32(&ft.maxInFlight); peak > 2 {
		t.Fatalf("max in flight = %d, want <= 2", peak)
	}
}

func TestFetchTokenBalance(t *testing.T) {
	ft := &fakeTransport{balance: &tokenAmount{Amount: "1500000", Decimals: 6, UIAmount: "1.5"}}

	bal, err := testClient(ft).FetchTokenBalance(context.Background(), solana.PublicKey{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.Amount != 1500000 || bal.Decimals != 6 {
		t.Fatalf("unexpected balance %+v", bal)
	}
	if bal.UIAmount.String() != "1.5" {
		t.Fatalf("ui amount = %s, want 1.5", bal.UIAmount)
	}
}

func TestFetchOwnedTokenAccount(t *testing.T) {
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()

	tests := []struct {
		name    string
		owned   []solana.PublicKey
		want    solana.PublicKey
		wantErr error
	}{
		{name: "first account wins", owned: []solana.PublicKey{first, second}, want: first},
		{name: "none owned", owned: nil, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{owned: tt.owned}
			got, err := testClient(ft).FetchOwnedTokenAccount(context.Background(), solana.PublicKey{}, solana.PublicKey{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equals(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("HTTP 429"), true},
		{errors.New("Too Many Requests"), true},
		{errors.New("rate limit reached"), true},
		{errors.New("connection refused"), false},
		{fmt.Errorf("wrapped: %w", errors.New("429")), true},
	}
	for _, tt := range tests {
		if got := IsRateLimited(tt.err); got != tt.want {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestBlockhashCacheServesFreshValue(t *testing.T) {
	ft := &fakeTransport{blockhash: solana.Hash{7}}
	cache := NewBlockhashCache(testClient(ft))

	h1, _, err := cache.GetBlockhash(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, _, err := cache.GetBlockhash(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 || h1 != (solana.Hash{7}) {
		t.Fatalf("unexpected hashes %s %s", h1, h2)
	}
	if ft.blockhashHit != 1 {
		t.Fatalf("rpc hits = %d, want 1", ft.blockhashHit)
	}
}

func TestBlockhashCacheFallsBackToStaleValue(t *testing.T) {
	ft := &fakeTransport{blockhashErr: errors.New("down")}
	c := newClient(ft, Options{Timeout: time.Second, MaxAttempts: 1, Concurrency: 1})
	cache := NewBlockhashCache(c)
	cache.current = &CachedBlockhash{Blockhash: solana.Hash{9}, UpdatedAt: time.Now().Add(-time.Minute)}

	h, _, err := cache.GetBlockhash(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != (solana.Hash{9}) {
		t.Fatalf("expected stale hash, got %s", h)
	}
}
