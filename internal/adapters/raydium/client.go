// Package raydium discovers candidate pools through the Raydium v3 HTTP API.
package raydium

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/metrics"
)

const poolsByMintPath = "/pools/info/mint"

var ErrNoCandidates = errors.New("no candidate pools")

type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Candidate is one pool entry from the API. Only ID is trusted downstream;
// everything else is informational and re-derived from chain state.
type Candidate struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	ProgramID string          `json:"programId"`
	MintA     Token           `json:"mintA"`
	MintB     Token           `json:"mintB"`
	Price     decimal.Decimal `json:"price"`
	TVL       decimal.Decimal `json:"tvl"`
	FeeRate   decimal.Decimal `json:"feeRate"`
}

func (c Candidate) Address() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(c.ID)
}

type poolsResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    struct {
		Count int         `json:"count"`
		Data  []Candidate `json:"data"`
	} `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// TopPools lists pools trading mint against quoteMint, deepest liquidity first.
// Any transport failure, non-200 status or empty page yields ErrNoCandidates.
func (c *Client) TopPools(ctx context.Context, mint, quoteMint solana.PublicKey, pageSize int) ([]Candidate, error) {
	q := url.Values{}
	q.Set("mint1", mint.String())
	q.Set("mint2", quoteMint.String())
	q.Set("poolType", "all")
	q.Set("poolSortField", "liquidity")
	q.Set("sortType", "desc")
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+poolsByMintPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("mint", mint.String()).Msg("[RaydiumClient] pool lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrNoCandidates, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("mint", mint.String()).Msg("[RaydiumClient] unexpected status")
		return nil, fmt.Errorf("%w: http %d", ErrNoCandidates, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCandidates, err)
	}
	var parsed poolsResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrNoCandidates, err)
	}

	pools := parsed.Data.Data
	metrics.CandidatesDiscovered.Set(float64(len(pools)))
	if len(pools) == 0 {
		log.Info().Str("mint", mint.String()).Msg("[RaydiumClient] no pools found")
		return nil, fmt.Errorf("%w: mint %s", ErrNoCandidates, mint)
	}
	return pools, nil
}

// TopPair returns the addresses of the two deepest pools for the pair.
func (c *Client) TopPair(ctx context.Context, mint, quoteMint solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	pools, err := c.TopPools(ctx, mint, quoteMint, 2)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	if len(pools) < 2 {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: need two pools, found %d", ErrNoCandidates, len(pools))
	}

	a, err := pools[0].Address()
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: pool id %q: %w", ErrNoCandidates, pools[0].ID, err)
	}
	b, err := pools[1].Address()
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: pool id %q: %w", ErrNoCandidates, pools[1].ID, err)
	}
	return a, b, nil
}
