// Package jito talks to the Jito block engine bundle JSON-RPC endpoint.
package jito

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/metrics"
)

const bundlesPath = "/api/v1/bundles"

// MaxBundleTransactions is the block engine's per-bundle limit.
const MaxBundleTransactions = 5

var (
	ErrBundleRejected = errors.New("bundle rejected by block engine")
	ErrEmptyBundle    = errors.New("bundle has no transactions")
	ErrRateLimited    = errors.New("block engine rate limited")
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("jito rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result sonic.NoCopyRawMessage `json:"result"`
	Error  *rpcError              `json:"error"`
}

type statusContext struct {
	Slot uint64 `json:"slot"`
}

type inflightStatus struct {
	BundleID   string  `json:"bundle_id"`
	Status     string  `json:"status"`
	LandedSlot *uint64 `json:"landed_slot"`
}

type inflightResult struct {
	Context statusContext    `json:"context"`
	Value   []inflightStatus `json:"value"`
}

type finalStatus struct {
	BundleID           string         `json:"bundle_id"`
	Transactions       []string       `json:"transactions"`
	Slot               uint64         `json:"slot"`
	ConfirmationStatus string         `json:"confirmation_status"`
	Err                map[string]any `json:"err"`
}

type finalResult struct {
	Context statusContext `json:"context"`
	Value   []finalStatus `json:"value"`
}

// Client is a minimal block engine client. Safe for concurrent use.
type Client struct {
	endpoint    string
	http        *http.Client
	fallbackTip []solana.PublicKey
	nextID      atomic.Uint64
}

func NewClient(baseURL string, timeout time.Duration, fallbackTip []solana.PublicKey) *Client {
	return &Client{
		endpoint:    strings.TrimRight(baseURL, "/") + bundlesPath,
		http:        &http.Client{Timeout: timeout},
		fallbackTip: fallbackTip,
	}
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := sonic.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", method, ErrRateLimited)
	}

	var envelope rpcResponse
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%s: http %d", method, resp.StatusCode)
		}
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: http %d", method, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func encodeTransactions(txs []*solana.Transaction) ([]string, error) {
	out := make([]string, 0, len(txs))
	for i, tx := range txs {
		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode transaction %d: %w", i, err)
		}
		out = append(out, base58.Encode(raw))
	}
	return out, nil
}

// SendBundle submits txs as one atomically ordered bundle and returns its id.
func (c *Client) SendBundle(ctx context.Context, txs []*solana.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", ErrEmptyBundle
	}
	if len(txs) > MaxBundleTransactions {
		return "", fmt.Errorf("%w: %d transactions exceeds %d", ErrBundleRejected, len(txs), MaxBundleTransactions)
	}
	encoded, err := encodeTransactions(txs)
	if err != nil {
		return "", err
	}

	var bundleID string
	err = c.call(ctx, "sendBundle", []any{encoded}, &bundleID)
	var rpcErr *rpcError
	switch {
	case errors.As(err, &rpcErr):
		metrics.BundleSubmissions.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: %s", ErrBundleRejected, rpcErr.Message)
	case err != nil:
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", err
	case bundleID == "":
		metrics.BundleSubmissions.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: empty bundle id", ErrBundleRejected)
	}

	metrics.BundleSubmissions.WithLabelValues("accepted").Inc()
	log.Info().Str("bundleId", bundleID).Int("transactions", len(txs)).Msg("[JitoClient] bundle submitted")
	return bundleID, nil
}

// InflightStatus reports the landing-phase state. Unknown ids are Invalid.
func (c *Client) InflightStatus(ctx context.Context, bundleID string) (*domain.BundleStatus, error) {
	var res inflightResult
	if err := c.call(ctx, "getInflightBundleStatuses", []any{[]string{bundleID}}, &res); err != nil {
		return nil, err
	}

	status := &domain.BundleStatus{BundleID: bundleID, State: domain.BundleInvalid}
	for _, v := range res.Value {
		if v.BundleID != bundleID {
			continue
		}
		status.State = parseInflightState(v.Status)
		if v.LandedSlot != nil {
			status.Slot = *v.LandedSlot
		}
	}
	return status, nil
}

func parseInflightState(s string) domain.BundleState {
	switch s {
	case "Pending":
		return domain.BundlePending
	case "Landed":
		return domain.BundleLanded
	case "Failed":
		return domain.BundleFailed
	default:
		return domain.BundleInvalid
	}
}

// FinalStatus reports the commitment of a landed bundle. A bundle the
// status index has not picked up yet stays Landed.
func (c *Client) FinalStatus(ctx context.Context, bundleID string) (*domain.BundleStatus, error) {
	var res finalResult
	if err := c.call(ctx, "getBundleStatuses", []any{[]string{bundleID}}, &res); err != nil {
		return nil, err
	}

	status := &domain.BundleStatus{BundleID: bundleID, State: domain.BundleLanded}
	for _, v := range res.Value {
		if v.BundleID != bundleID {
			continue
		}
		status.Slot = v.Slot
		if errText := statusError(v.Err); errText != "" {
			status.State = domain.BundleFailed
			status.Err = errText
			return status, nil
		}
		switch v.ConfirmationStatus {
		case "processed":
			status.State = domain.BundleProcessed
		case "confirmed":
			status.State = domain.BundleConfirmed
		case "finalized":
			status.State = domain.BundleFinalized
		}
	}
	return status, nil
}

// statusError flattens the bundle err object; {"Ok": null} is success.
func statusError(e map[string]any) string {
	if len(e) == 0 {
		return ""
	}
	if v, ok := e["Ok"]; ok && v == nil && len(e) == 1 {
		return ""
	}
	raw, err := sonic.MarshalString(e)
	if err != nil {
		return fmt.Sprint(e)
	}
	return raw
}

// TipAccounts lists the block engine's current tip accounts.
func (c *Client) TipAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	var raw []string
	if err := c.call(ctx, "getTipAccounts", []any{}, &raw); err != nil {
		return nil, err
	}
	out := make([]solana.PublicKey, 0, len(raw))
	for _, s := range raw {
		key, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("tip account %q: %w", s, err)
		}
		out = append(out, key)
	}
	return out, nil
}

// RandomTipAccount picks one tip account, falling back to the static list.
func (c *Client) RandomTipAccount(ctx context.Context) (solana.PublicKey, error) {
	accounts, err := c.TipAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = errors.New("empty tip account list")
	}
	if err != nil {
		if len(c.fallbackTip) == 0 {
			return solana.PublicKey{}, fmt.Errorf("no tip accounts available: %w", err)
		}
		log.Warn().Err(err).Msg("[JitoClient] using static tip accounts")
		accounts = c.fallbackTip
	}
	return accounts[rand.IntN(len(accounts))], nil
}
