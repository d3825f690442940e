package priority

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
)

// Urgency represents the priority level for a transaction
type Urgency uint8

const (
	// UrgencyLow uses the p50 fee
	UrgencyLow Urgency = iota
	// UrgencyMedium uses the p75 fee
	UrgencyMedium
	// UrgencyHigh uses the p90 fee
	UrgencyHigh
	// UrgencyExtreme uses the p99 fee, for contested pools
	UrgencyExtreme
)

// MinFeePerCU is the floor applied to sampled fees, in micro-lamports.
const MinFeePerCU = 100

// DefaultFees are fallback fees when RPC fails (microLamports per CU)
var DefaultFees = map[Urgency]uint64{
	UrgencyLow:     1_000,
	UrgencyMedium:  10_000,
	UrgencyHigh:    100_000,
	UrgencyExtreme: 1_000_000,
}

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyExtreme:
		return "extreme"
	default:
		return fmt.Sprintf("urgency(%d)", uint8(u))
	}
}

func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow, nil
	case "", "medium":
		return UrgencyMedium, nil
	case "high":
		return UrgencyHigh, nil
	case "extreme":
		return UrgencyExtreme, nil
	default:
		return UrgencyMedium, fmt.Errorf("unknown urgency %q", s)
	}
}

// FeeSource is the chain call the calculator samples.
type FeeSource interface {
	FetchRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]uint64, error)
}

// FeeCalculator picks a compute unit price from recent prioritization fees
type FeeCalculator struct {
	source FeeSource
}

func NewFeeCalculator(source FeeSource) *FeeCalculator {
	return &FeeCalculator{source: source}
}

// PriorityFeeResult holds the calculated fee information
type PriorityFeeResult struct {
	FeePerCU    uint64 // microLamports per compute unit
	Urgency     Urgency
	Percentile  int
	SampleCount int
}

// GetOptimalFee never fails; sampling errors fall back to DefaultFees.
func (f *FeeCalculator) GetOptimalFee(ctx context.Context, urgency Urgency, accounts []solana.PublicKey) *PriorityFeeResult {
	percentile := getPercentileForUrgency(urgency)
	fallback := &PriorityFeeResult{
		FeePerCU:   DefaultFees[urgency],
		Urgency:    urgency,
		Percentile: percentile,
	}

	recent, err := f.source.FetchRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		log.Warn().Err(err).Str("urgency", urgency.String()).Msg("[FeeCalculator] using default fee")
		return fallback
	}

	fees := make([]uint64, 0, len(recent))
	for _, fee := range recent {
		if fee > 0 {
			fees = append(fees, fee)
		}
	}
	if len(fees) == 0 {
		return fallback
	}

	sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })
	feePerCU := calculatePercentile(fees, percentile)
	if feePerCU < MinFeePerCU {
		feePerCU = MinFeePerCU
	}

	return &PriorityFeeResult{
		FeePerCU:    feePerCU,
		Urgency:     urgency,
		Percentile:  percentile,
		SampleCount: len(fees),
	}
}

func getPercentileForUrgency(urgency Urgency) int {
	switch urgency {
	case UrgencyLow:
		return 50
	case UrgencyMedium:
		return 75
	case UrgencyHigh:
		return 90
	case UrgencyExtreme:
		return 99
	default:
		return 75
	}
}

// calculatePercentile interpolates linearly between the closest ranks.
func calculatePercentile(sorted []uint64, percentile int) uint64 {
	if len(sorted) == 0 {
		return 0
	}
	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 100 {
		return sorted[len(sorted)-1]
	}

	k := float64(percentile) / 100.0 * float64(len(sorted)-1)
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		c = len(sorted) - 1
	}

	d := k - float64(f)
	return uint64(float64(sorted[f])*(1-d) + float64(sorted[c])*d)
}

// TotalLamports is the priority fee paid for computeUnits at this price.
func (r *PriorityFeeResult) TotalLamports(computeUnits uint32) uint64 {
	return r.FeePerCU * uint64(computeUnits) / 1_000_000
}
