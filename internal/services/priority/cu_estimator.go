package priority

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/metrics"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
)

const (
	ComputeUnitBuffer = 1.1
)

// Simulator runs a transaction without landing it.
type Simulator interface {
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error)
}

// CUEstimator sizes the compute unit limit from a simulation.
type CUEstimator struct {
	simulator Simulator
	fallback  uint32
}

func NewCUEstimator(simulator Simulator, fallback uint32) *CUEstimator {
	return &CUEstimator{simulator: simulator, fallback: fallback}
}

type CUEstimateResult struct {
	UnitsConsumed   uint64
	UnitsWithBuffer uint32
	Simulated       bool
	SimulationErr   string
	SimulationLogs  []string
}

// EstimateCU falls back to the configured budget when the simulation errors,
// fails or reports no consumption.
func (e *CUEstimator) EstimateCU(ctx context.Context, tx *solana.Transaction) *CUEstimateResult {
	fallback := &CUEstimateResult{UnitsConsumed: uint64(e.fallback), UnitsWithBuffer: e.fallback}

	result, err := e.simulator.SimulateTransaction(ctx, tx)
	if err != nil {
		log.Warn().Err(err).Msg("[CUEstimator] simulation unavailable, using configured budget")
		return fallback
	}
	fallback.SimulationLogs = result.Logs
	if !result.Success {
		fallback.SimulationErr = result.Error
		return fallback
	}
	if result.UnitsConsumed == 0 {
		return fallback
	}

	metrics.ComputeUnits.Observe(float64(result.UnitsConsumed))
	units := uint64(float64(result.UnitsConsumed) * ComputeUnitBuffer)
	if units > builder.MaxComputeUnits {
		units = builder.MaxComputeUnits
	}
	return &CUEstimateResult{
		UnitsConsumed:   result.UnitsConsumed,
		UnitsWithBuffer: uint32(units),
		Simulated:       true,
		SimulationLogs:  result.Logs,
	}
}
