// Package priority sizes compute budgets and unit prices for outgoing transactions.
package priority

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/metrics"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
)

// maxFeeAccounts bounds the accounts sent to getRecentPrioritizationFees.
const maxFeeAccounts = 8

// Chain is what the priority service needs from the chain client.
type Chain interface {
	FeeSource
	Simulator
}

// Service provides priority fee estimation and CU optimization
type Service struct {
	cuEstimator   *CUEstimator
	feeCalculator *FeeCalculator
}

func NewService(chain Chain, fallbackUnits uint32) *Service {
	return &Service{
		cuEstimator:   NewCUEstimator(chain, fallbackUnits),
		feeCalculator: NewFeeCalculator(chain),
	}
}

// PriorityConfig holds the computed priority settings for a transaction
type PriorityConfig struct {
	ComputeUnits     uint32
	PriorityFee      uint64 // microLamports per CU
	TotalFeeLamports uint64
	Urgency          Urgency
	Simulated        bool
}

// GetPriorityConfig simulates tx for its unit limit and samples fees on its
// writable accounts.
func (s *Service) GetPriorityConfig(ctx context.Context, tx *solana.Transaction, urgency Urgency) *PriorityConfig {
	cu := s.cuEstimator.EstimateCU(ctx, tx)
	fee := s.feeCalculator.GetOptimalFee(ctx, urgency, extractWritableAccounts(tx))
	metrics.PriorityFee.Set(float64(fee.FeePerCU))

	return &PriorityConfig{
		ComputeUnits:     cu.UnitsWithBuffer,
		PriorityFee:      fee.FeePerCU,
		TotalFeeLamports: fee.TotalLamports(cu.UnitsWithBuffer),
		Urgency:          urgency,
		Simulated:        cu.Simulated,
	}
}

// FeeFor samples a unit price for the given writable accounts only.
func (s *Service) FeeFor(ctx context.Context, urgency Urgency, accounts []solana.PublicKey) uint64 {
	if len(accounts) > maxFeeAccounts {
		accounts = accounts[:maxFeeAccounts]
	}
	fee := s.feeCalculator.GetOptimalFee(ctx, urgency, accounts).FeePerCU
	metrics.PriorityFee.Set(float64(fee))
	return fee
}

// BuildPriorityInstructions creates the compute budget instructions
func (s *Service) BuildPriorityInstructions(config *PriorityConfig) []solana.Instruction {
	return builder.ComputeBudgetInstructions(config.ComputeUnits, config.PriorityFee)
}

// WritableAccounts lists the writable accounts across instructions, deduplicated.
func WritableAccounts(ixs []solana.Instruction) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	out := make([]solana.PublicKey, 0, maxFeeAccounts)
	for _, ix := range ixs {
		for _, meta := range ix.Accounts() {
			if !meta.IsWritable || meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			out = append(out, meta.PublicKey)
		}
	}
	return out
}

func extractWritableAccounts(tx *solana.Transaction) []solana.PublicKey {
	accounts := make([]solana.PublicKey, 0, maxFeeAccounts)
	for _, acc := range tx.Message.AccountKeys {
		isWritable, err := tx.Message.IsWritable(acc)
		if err == nil && isWritable {
			accounts = append(accounts, acc)
		}
	}
	if len(accounts) > maxFeeAccounts {
		accounts = accounts[:maxFeeAccounts]
	}
	return accounts
}
