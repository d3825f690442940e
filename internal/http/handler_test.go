package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/http/httputil"
	"github.com/hxuan190/sol-arbitrage/internal/services/arbitrage"
	"github.com/hxuan190/sol-arbitrage/internal/services/confirmation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBackend struct {
	runReq   *arbitrage.RunRequest
	result   *arbitrage.Result
	runErr   error
	attempts []*domain.Attempt
	limit    int
	bundles  map[string]*domain.Attempt

	candidates []raydium.Candidate
	price      *domain.PoolPrice
	prices     []*domain.PoolPrice
	err        error
}

func (f *fakeBackend) Run(_ context.Context, req arbitrage.RunRequest) (*arbitrage.Result, error) {
	f.runReq = &req
	return f.result, f.runErr
}

func (f *fakeBackend) Attempts(limit int) ([]*domain.Attempt, error) {
	f.limit = limit
	return f.attempts, f.err
}

func (f *fakeBackend) AttemptByBundle(bundleID string) (*domain.Attempt, error) {
	a, ok := f.bundles[bundleID]
	if !ok {
		return nil, fmt.Errorf("%w: bundle %s", persistence.ErrAttemptNotFound, bundleID)
	}
	return a, nil
}

func (f *fakeBackend) Candidates(context.Context, solana.PublicKey) ([]raydium.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeBackend) PoolPrice(context.Context, solana.PublicKey) (*domain.PoolPrice, error) {
	return f.price, f.err
}

func (f *fakeBackend) Prices(context.Context, solana.PublicKey) ([]*domain.PoolPrice, error) {
	return f.prices, f.err
}

func newTestRouter(b *fakeBackend) *gin.Engine {
	return NewRouter(nil, NewPoolHandler(b), NewArbitrageHandler(b))
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, httputil.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp httputil.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestArbitrageRun(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	b := &fakeBackend{result: &arbitrage.Result{Attempt: &domain.Attempt{ID: "a-1", Mode: domain.SubmitBundled}}}
	r := newTestRouter(b)

	w, resp := do(t, r, gohttp.MethodPost, "/api/v1/arbitrage", ArbitrageRequest{
		TokenMint: mint.String(),
		BaseIn:    "0.25",
		Mode:      "bundled",
	})
	if w.Code != gohttp.StatusOK || !resp.Success {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !b.runReq.TokenMint.Equals(mint) || !b.runReq.BaseIn.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("request not forwarded: %+v", b.runReq)
	}
	if b.runReq.Mode != domain.SubmitBundled || !b.runReq.PoolA.IsZero() {
		t.Errorf("unexpected request %+v", b.runReq)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["id"] != "a-1" {
		t.Errorf("attempt not returned: %v", resp.Data)
	}
}

func TestArbitrageRunValidation(t *testing.T) {
	mint := solana.NewWallet().PublicKey().String()
	tests := []struct {
		name string
		req  ArbitrageRequest
	}{
		{"no mint or pools", ArbitrageRequest{}},
		{"one pool without mint", ArbitrageRequest{PoolA: mint}},
		{"bad mint", ArbitrageRequest{TokenMint: "nope"}},
		{"bad pool", ArbitrageRequest{TokenMint: mint, PoolB: "nope"}},
		{"negative base", ArbitrageRequest{TokenMint: mint, BaseIn: "-1"}},
		{"garbage base", ArbitrageRequest{TokenMint: mint, BaseIn: "lots"}},
		{"unknown mode", ArbitrageRequest{TokenMint: mint, Mode: "parallel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			w, resp := do(t, newTestRouter(b), gohttp.MethodPost, "/api/v1/arbitrage", tt.req)
			if w.Code != gohttp.StatusBadRequest || resp.Code != "BAD_REQUEST" {
				t.Fatalf("status %d code %s", w.Code, resp.Code)
			}
			if b.runReq != nil {
				t.Fatal("backend must not be called")
			}
		})
	}
}

func TestArbitrageRunFailureKeepsAttempt(t *testing.T) {
	b := &fakeBackend{
		result: &arbitrage.Result{Attempt: &domain.Attempt{ID: "a-2", Err: "bundle failed"}},
		runErr: fmt.Errorf("wait: %w", confirmation.ErrBundleFailed),
	}
	w, resp := do(t, newTestRouter(b), gohttp.MethodPost, "/api/v1/arbitrage", ArbitrageRequest{
		PoolA: solana.NewWallet().PublicKey().String(),
		PoolB: solana.NewWallet().PublicKey().String(),
	})
	if w.Code != gohttp.StatusUnprocessableEntity || resp.Success {
		t.Fatalf("status %d", w.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["id"] != "a-2" {
		t.Errorf("attempt must accompany the error: %v", resp.Data)
	}
}

func TestListAttempts(t *testing.T) {
	b := &fakeBackend{attempts: []*domain.Attempt{{ID: "x"}, {ID: "y"}}}
	r := newTestRouter(b)

	w, resp := do(t, r, gohttp.MethodGet, "/api/v1/arbitrage/attempts", nil)
	if w.Code != gohttp.StatusOK || b.limit != 50 {
		t.Fatalf("status %d limit %d", w.Code, b.limit)
	}
	if items, _ := resp.Data.([]interface{}); len(items) != 2 {
		t.Errorf("got %v", resp.Data)
	}

	do(t, r, gohttp.MethodGet, "/api/v1/arbitrage/attempts?limit=10000", nil)
	if b.limit != 500 {
		t.Errorf("limit not capped: %d", b.limit)
	}

	if w, _ := do(t, r, gohttp.MethodGet, "/api/v1/arbitrage/attempts?limit=zero", nil); w.Code != gohttp.StatusBadRequest {
		t.Errorf("bad limit status %d", w.Code)
	}
}

func TestBundleAttempt(t *testing.T) {
	b := &fakeBackend{bundles: map[string]*domain.Attempt{"b1d": {ID: "a1", Bundle: &domain.BundleStatus{BundleID: "b1d"}}}}
	r := newTestRouter(b)

	w, resp := do(t, r, gohttp.MethodGet, "/api/v1/arbitrage/bundles/b1d", nil)
	if w.Code != gohttp.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if data, _ := resp.Data.(map[string]interface{}); data["id"] != "a1" {
		t.Errorf("got %v", resp.Data)
	}

	if w, _ := do(t, r, gohttp.MethodGet, "/api/v1/arbitrage/bundles/missing", nil); w.Code != gohttp.StatusNotFound {
		t.Errorf("unknown bundle status %d", w.Code)
	}
}

func TestPoolCandidates(t *testing.T) {
	b := &fakeBackend{candidates: []raydium.Candidate{{
		ID:      "pool-1",
		Type:    "Standard",
		MintA:   raydium.Token{Address: "So11111111111111111111111111111111111111112"},
		MintB:   raydium.Token{Address: "mint-b"},
		TVL:     decimal.NewFromInt(1000),
		FeeRate: decimal.RequireFromString("0.0025"),
	}}}
	r := newTestRouter(b)

	w, resp := do(t, r, gohttp.MethodGet, "/api/v1/pools/candidates/"+solana.NewWallet().PublicKey().String(), nil)
	if w.Code != gohttp.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	items, _ := resp.Data.([]interface{})
	if len(items) != 1 {
		t.Fatalf("got %v", resp.Data)
	}
	first := items[0].(map[string]interface{})
	if first["address"] != "pool-1" || first["fee_rate"] != "0.0025" || first["mint_b"] != "mint-b" {
		t.Errorf("unexpected candidate %v", first)
	}

	if w, _ := do(t, r, gohttp.MethodGet, "/api/v1/pools/candidates/bad", nil); w.Code != gohttp.StatusBadRequest {
		t.Errorf("bad mint status %d", w.Code)
	}

	b.err = raydium.ErrNoCandidates
	if w, _ := do(t, r, gohttp.MethodGet, "/api/v1/pools/candidates/"+solana.NewWallet().PublicKey().String(), nil); w.Code != gohttp.StatusNotFound {
		t.Errorf("no candidates status %d", w.Code)
	}
}

func TestPoolPrice(t *testing.T) {
	pool := solana.NewWallet().PublicKey()
	b := &fakeBackend{price: &domain.PoolPrice{
		Pool:       pool,
		Kind:       domain.PoolKindConcentrated,
		BaseMint:   solana.SolMint,
		QuoteMint:  solana.NewWallet().PublicKey(),
		Price:      decimal.RequireFromString("0.0195"),
		FeePercent: decimal.RequireFromString("0.25"),
	}}
	r := newTestRouter(b)

	w, resp := do(t, r, gohttp.MethodGet, "/api/v1/pools/"+pool.String()+"/price", nil)
	if w.Code != gohttp.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["price"] != "0.0195" || data["fee_percent"] != "0.25" || data["kind"] != "RaydiumClmm" || data["address"] != pool.String() {
		t.Errorf("unexpected price %v", data)
	}

	b.err = fmt.Errorf("load: %w", blockchain.ErrNotFound)
	if w, _ := do(t, r, gohttp.MethodGet, "/api/v1/pools/"+pool.String()+"/price", nil); w.Code != gohttp.StatusNotFound {
		t.Errorf("missing pool status %d", w.Code)
	}
}

func TestPoolPrices(t *testing.T) {
	b := &fakeBackend{prices: []*domain.PoolPrice{
		{Pool: solana.NewWallet().PublicKey(), Price: decimal.NewFromInt(1)},
		{Pool: solana.NewWallet().PublicKey(), Price: decimal.NewFromInt(2)},
	}}
	w, resp := do(t, newTestRouter(b), gohttp.MethodGet, "/api/v1/pools/prices/"+solana.NewWallet().PublicKey().String(), nil)
	if w.Code != gohttp.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if items, _ := resp.Data.([]interface{}); len(items) != 2 {
		t.Errorf("got %v", resp.Data)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeBackend{})
	req := httptest.NewRequest(gohttp.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != gohttp.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestToHttpError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", blockchain.ErrNotFound), gohttp.StatusNotFound},
		{raydium.ErrNoCandidates, gohttp.StatusNotFound},
		{blockchain.ErrUnavailable, gohttp.StatusServiceUnavailable},
		{confirmation.ErrOutcomeUnknown, gohttp.StatusServiceUnavailable},
		{arbitrage.ErrSamePool, gohttp.StatusBadRequest},
		{arbitrage.ErrUnknownMode, gohttp.StatusBadRequest},
		{arbitrage.ErrPairMismatch, gohttp.StatusUnprocessableEntity},
		{fmt.Errorf("buy: %w", arbitrage.ErrBuyFailed), gohttp.StatusUnprocessableEntity},
		{errors.New("boom"), gohttp.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := toHttpError(tt.err); got.StatusCode != tt.want {
				t.Errorf("got %d, want %d", got.StatusCode, tt.want)
			}
		})
	}
}
