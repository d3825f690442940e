// Package blockchain wraps the Solana JSON-RPC endpoint with bounded concurrency,
// per-attempt timeouts and exponential backoff.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/metrics"
	"github.com/hxuan190/sol-arbitrage/internal/retry"
)

var (
	ErrNotFound    = errors.New("account not found")
	ErrUnavailable = errors.New("rpc unavailable")
)

type Options struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	Concurrency int64
}

func DefaultOptions() Options {
	return Options{
		Timeout:     10 * time.Second,
		MaxAttempts: 5,
		Backoff:     time.Second,
		Concurrency: 5,
	}
}

// Client is safe for concurrent use. Every call holds one semaphore permit per attempt.
type Client struct {
	transport rpcTransport
	sem       *semaphore.Weighted
	opts      Options
}

func NewClient(rpcURL string, opts Options) *Client {
	return newClient(newSolanaRPC(rpcURL), opts)
}

func newClient(t rpcTransport, opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = def.Backoff
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	return &Client{
		transport: t,
		sem:       semaphore.NewWeighted(opts.Concurrency),
		opts:      opts,
	}
}

// Policy returns the retry policy used for the given RPC method.
func (c *Client) Policy(method string) retry.Policy {
	return retry.Policy{
		MaxAttempts: c.opts.MaxAttempts,
		Backoff:     c.opts.Backoff,
		Retryable:   isRetryable,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			reason := "transport"
			if IsRateLimited(err) {
				reason = "rate_limited"
			}
			metrics.RPCRetries.WithLabelValues(method, reason).Inc()
			log.Warn().
				Err(err).
				Str("method", method).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("[ChainClient] retrying rpc call")
		},
	}
}

func call[T any](ctx context.Context, c *Client, method string, op func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := retry.Do(ctx, c.Policy(method), func(ctx context.Context) (T, error) {
		var zero T
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return zero, err
		}
		defer c.sem.Release(1)

		actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
		return op(actx)
	})
	metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
		return v, nil
	case errors.Is(err, ErrNotFound):
		metrics.RPCRequests.WithLabelValues(method, "not_found").Inc()
		return v, err
	case errors.Is(err, retry.ErrExhausted):
		metrics.RPCRequests.WithLabelValues(method, "unavailable").Inc()
		return v, fmt.Errorf("%w: %s: %w", ErrUnavailable, method, err)
	default:
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return v, fmt.Errorf("%s: %w", method, err)
	}
}

func isRetryable(err error) bool {
	return !errors.Is(err, ErrNotFound)
}

// IsRateLimited reports whether err is an HTTP or JSON-RPC 429.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

func (c *Client) FetchAccount(ctx context.Context, address solana.PublicKey) (*domain.AccountBlob, error) {
	return call(ctx, c, "getAccountInfo", func(ctx context.Context) (*domain.AccountBlob, error) {
		return c.transport.getAccount(ctx, address)
	})
}

func (c *Client) FetchTokenBalance(ctx context.Context, account solana.PublicKey) (*domain.TokenBalance, error) {
	amt, err := call(ctx, c, "getTokenAccountBalance", func(ctx context.Context) (*tokenAmount, error) {
		return c.transport.getTokenAccountBalance(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	raw, err := strconv.ParseUint(amt.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse token amount %q: %w", amt.Amount, err)
	}
	return &domain.TokenBalance{
		Amount:   raw,
		Decimals: amt.Decimals,
		UIAmount: decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(amt.Decimals)),
	}, nil
}

func (c *Client) FetchLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := c.fetchBlockhashWithHeight(ctx)
	return res.hash, err
}

type blockhashResult struct {
	hash            solana.Hash
	lastValidHeight uint64
}

func (c *Client) fetchBlockhashWithHeight(ctx context.Context) (blockhashResult, error) {
	return call(ctx, c, "getLatestBlockhash", func(ctx context.Context) (blockhashResult, error) {
		h, height, err := c.transport.getLatestBlockhash(ctx)
		return blockhashResult{hash: h, lastValidHeight: height}, err
	})
}

func (c *Client) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return call(ctx, c, "sendTransaction", func(ctx context.Context) (solana.Signature, error) {
		return c.transport.sendTransaction(ctx, tx)
	})
}

// FetchOwnedTokenAccount returns the first token account of owner holding mint.
func (c *Client) FetchOwnedTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	accounts, err := call(ctx, c, "getTokenAccountsByOwner", func(ctx context.Context) ([]solana.PublicKey, error) {
		return c.transport.getTokenAccountsByOwner(ctx, owner, mint)
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(accounts) == 0 {
		return solana.PublicKey{}, fmt.Errorf("token account for mint %s: %w", mint, ErrNotFound)
	}
	return accounts[0], nil
}

func (c *Client) FetchRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return call(ctx, c, "getMinimumBalanceForRentExemption", func(ctx context.Context) (uint64, error) {
		return c.transport.getMinimumBalanceForRentExemption(ctx, size)
	})
}

func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error) {
	metrics.SimulationRequests.Inc()
	res, err := call(ctx, c, "simulateTransaction", func(ctx context.Context) (*domain.SimulationResult, error) {
		return c.transport.simulateTransaction(ctx, tx)
	})
	if err != nil {
		metrics.SimulationFailures.WithLabelValues("rpc").Inc()
		return nil, err
	}
	if !res.Success {
		metrics.SimulationFailures.WithLabelValues("program").Inc()
	}
	metrics.ComputeUnits.Observe(float64(res.UnitsConsumed))
	return res, nil
}

func (c *Client) FetchRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error) {
	return call(ctx, c, "getRecentPrioritizationFees", func(ctx context.Context) ([]uint64, error) {
		return c.transport.getRecentPrioritizationFees(ctx, accounts)
	})
}
