package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

type tokenAmount struct {
	Amount   string
	Decimals uint8
	UIAmount string
}

// rpcTransport is the subset of the Solana JSON-RPC surface the client uses.
type rpcTransport interface {
	getAccount(ctx context.Context, address solana.PublicKey) (*domain.AccountBlob, error)
	getTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*tokenAmount, error)
	getLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	sendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	getTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error)
	getMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	simulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error)
	getRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error)
}

type solanaRPC struct {
	client *rpc.Client
}

func newSolanaRPC(url string) *solanaRPC {
	return &solanaRPC{client: rpc.New(url)}
}

func (s *solanaRPC) getAccount(ctx context.Context, address solana.PublicKey) (*domain.AccountBlob, error) {
	res, err := s.client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, ErrNotFound
	}
	return &domain.AccountBlob{
		Address:  address,
		Owner:    res.Value.Owner,
		Data:     res.Value.Data.GetBinary(),
		Lamports: res.Value.Lamports,
	}, nil
}

func (s *solanaRPC) getTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*tokenAmount, error) {
	res, err := s.client.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, ErrNotFound
	}
	return &tokenAmount{
		Amount:   res.Value.Amount,
		Decimals: res.Value.Decimals,
		UIAmount: res.Value.UiAmountString,
	}, nil
}

func (s *solanaRPC) getLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	res, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, 0, err
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, 0, fmt.Errorf("empty blockhash response")
	}
	return res.Value.Blockhash, res.Value.LastValidBlockHeight, nil
}

func (s *solanaRPC) sendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
}

func (s *solanaRPC) getTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	m := mint
	res, err := s.client.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &m},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
	)
	if err != nil {
		return nil, err
	}
	out := make([]solana.PublicKey, 0, len(res.Value))
	for _, acc := range res.Value {
		out = append(out, acc.Pubkey)
	}
	return out, nil
}

func (s *solanaRPC) getMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return s.client.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentFinalized)
}

func (s *solanaRPC) simulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error) {
	res, err := s.client.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             rpc.CommitmentConfirmed,
		ReplaceRecentBlockhash: true,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("empty simulation response")
	}

	out := &domain.SimulationResult{
		Success: res.Value.Err == nil,
		Logs:    res.Value.Logs,
	}
	if res.Value.Err != nil {
		out.Error = fmt.Sprintf("%v", res.Value.Err)
	}
	if res.Value.UnitsConsumed != nil {
		out.UnitsConsumed = *res.Value.UnitsConsumed
	}
	return out, nil
}

func (s *solanaRPC) getRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error) {
	res, err := s.client.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return nil, err
	}
	fees := make([]uint64, 0, len(res))
	for _, f := range res {
		fees = append(fees, f.PrioritizationFee)
	}
	return fees, nil
}
