package jito

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

type recordedRequest struct {
	Method string                   `json:"method"`
	Params []sonic.NoCopyRawMessage `json:"params"`
}

// newEngine serves canned JSON-RPC bodies keyed by method.
func newEngine(t *testing.T, replies map[string]string, seen *[]recordedRequest) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != bundlesPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req recordedRequest
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if seen != nil {
			*seen = append(*seen, req)
		}
		reply, ok := replies[req.Method]
		if !ok {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, nil)
}

func signedTx(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet()
	ix := solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		solana.Meta(payer.PublicKey()).SIGNER().WRITE(),
	}, []byte{2, 0, 0, 0})
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return &payer.PrivateKey
	}); err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	return tx
}

func TestSendBundle(t *testing.T) {
	var seen []recordedRequest
	client := newEngine(t, map[string]string{
		"sendBundle": `{"jsonrpc":"2.0","id":1,"result":"b1d"}`,
	}, &seen)

	tx := signedTx(t)
	id, err := client.SendBundle(context.Background(), []*solana.Transaction{tx, tx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "b1d" {
		t.Fatalf("bundle id %q", id)
	}

	if len(seen) != 1 || len(seen[0].Params) != 1 {
		t.Fatalf("unexpected request %+v", seen)
	}
	var encoded []string
	if err := sonic.Unmarshal(seen[0].Params[0], &encoded); err != nil || len(encoded) != 2 {
		t.Fatalf("transactions param: %v %v", encoded, err)
	}
	raw, err := base58.Decode(encoded[0])
	if err != nil {
		t.Fatalf("transactions must be base58: %v", err)
	}
	want, _ := tx.MarshalBinary()
	if string(raw) != string(want) {
		t.Fatal("transaction bytes changed in transit")
	}
}

func TestSendBundleRejected(t *testing.T) {
	client := newEngine(t, map[string]string{
		"sendBundle": `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"bundle contains an expired blockhash"}}`,
	}, nil)

	_, err := client.SendBundle(context.Background(), []*solana.Transaction{signedTx(t)})
	if !errors.Is(err, ErrBundleRejected) {
		t.Fatalf("expected ErrBundleRejected, got %v", err)
	}

	if _, err := client.SendBundle(context.Background(), nil); !errors.Is(err, ErrEmptyBundle) {
		t.Fatalf("expected ErrEmptyBundle, got %v", err)
	}
	six := make([]*solana.Transaction, MaxBundleTransactions+1)
	if _, err := client.SendBundle(context.Background(), six); !errors.Is(err, ErrBundleRejected) {
		t.Fatalf("expected ErrBundleRejected for oversize bundle, got %v", err)
	}
}

func TestInflightStatus(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		want     domain.BundleState
		wantSlot uint64
	}{
		{
			name:  "pending",
			reply: `{"result":{"context":{"slot":10},"value":[{"bundle_id":"b1","status":"Pending","landed_slot":null}]}}`,
			want:  domain.BundlePending,
		},
		{
			name:     "landed",
			reply:    `{"result":{"context":{"slot":10},"value":[{"bundle_id":"b1","status":"Landed","landed_slot":9}]}}`,
			want:     domain.BundleLanded,
			wantSlot: 9,
		},
		{
			name:  "failed",
			reply: `{"result":{"context":{"slot":10},"value":[{"bundle_id":"b1","status":"Failed","landed_slot":null}]}}`,
			want:  domain.BundleFailed,
		},
		{
			name:  "unknown id",
			reply: `{"result":{"context":{"slot":10},"value":[]}}`,
			want:  domain.BundleInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newEngine(t, map[string]string{"getInflightBundleStatuses": tt.reply}, nil)
			got, err := client.InflightStatus(context.Background(), "b1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.State != tt.want || got.Slot != tt.wantSlot {
				t.Fatalf("got %s@%d, want %s@%d", got.State, got.Slot, tt.want, tt.wantSlot)
			}
		})
	}
}

func TestFinalStatus(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    domain.BundleState
		wantErr bool
	}{
		{
			name:  "not indexed yet",
			reply: `{"result":{"context":{"slot":10},"value":[]}}`,
			want:  domain.BundleLanded,
		},
		{
			name:  "confirmed",
			reply: `{"result":{"context":{"slot":10},"value":[{"bundle_id":"b1","slot":9,"confirmation_status":"confirmed","err":{"Ok":null}}]}}`,
			want:  domain.BundleConfirmed,
		},
		{
			name:  "finalized",
			reply: `{"result":{"context":{"slot":10},"value":[{"bundle_id":"b1","slot":9,"confirmation_status":"finalized","err":{"Ok":null}}]}}`,
			want:  domain.BundleFinalized,
		},
		{
			name:    "execution error",
			reply:   `{"result":{"context":{"slot":10},"value":[{"bundle_id":"b1","slot":9,"confirmation_status":"processed","err":{"Err":"InstructionError"}}]}}`,
			want:    domain.BundleFailed,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newEngine(t, map[string]string{"getBundleStatuses": tt.reply}, nil)
			got, err := client.FinalStatus(context.Background(), "b1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.State != tt.want {
				t.Fatalf("state %s, want %s", got.State, tt.want)
			}
			if (got.Err != "") != tt.wantErr {
				t.Fatalf("err %q", got.Err)
			}
		})
	}
}

func TestRandomTipAccount(t *testing.T) {
	tip := solana.NewWallet().PublicKey()
	client := newEngine(t, map[string]string{
		"getTipAccounts": `{"result":["` + tip.String() + `"]}`,
	}, nil)
	got, err := client.RandomTipAccount(context.Background())
	if err != nil || !got.Equals(tip) {
		t.Fatalf("got %s, %v", got, err)
	}

	fallback := solana.NewWallet().PublicKey()
	limited := newEngine(t, map[string]string{}, nil)
	limited.fallbackTip = []solana.PublicKey{fallback}
	got, err = limited.RandomTipAccount(context.Background())
	if err != nil || !got.Equals(fallback) {
		t.Fatalf("expected static fallback, got %s, %v", got, err)
	}

	limited.fallbackTip = nil
	if _, err := limited.RandomTipAccount(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
