package builder

import (
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

var ComputeBudgetProgramID = computebudget.ProgramID

// MaxComputeUnits is the per-transaction compute ceiling.
const MaxComputeUnits = 1_400_000

// ComputeBudgetInstructions returns the unit limit and unit price instructions.
func ComputeBudgetInstructions(units uint32, microLamports uint64) []solana.Instruction {
	return []solana.Instruction{
		UnitLimitInstruction(units),
		computebudget.NewSetComputeUnitPriceInstruction(microLamports).Build(),
	}
}

// UnitLimitInstruction caps units at MaxComputeUnits.
func UnitLimitInstruction(units uint32) solana.Instruction {
	return computebudget.NewSetComputeUnitLimitInstruction(min(units, MaxComputeUnits)).Build()
}
