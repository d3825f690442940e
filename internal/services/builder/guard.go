package builder

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
)

func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

var (
	startSwapDiscriminator      = anchorDiscriminator("start_swap")
	profitOrRevertDiscriminator = anchorDiscriminator("profit_or_revert")
)

// ProfitGuardInstructions returns the pair of guard instructions that bracket a
// round trip: start records the balance of source, end reverts the transaction
// unless the balance grew.
func ProfitGuardInstructions(net common.Network, source solana.PublicKey, amountIn uint64) (start, end solana.Instruction, err error) {
	state, err := SwapStateAddress(net)
	if err != nil {
		return nil, nil, err
	}
	accounts := func() solana.AccountMetaSlice {
		return solana.AccountMetaSlice{
			solana.Meta(source),
			solana.Meta(state).WRITE(),
		}
	}

	startData := make([]byte, 0, 16)
	startData = append(startData, startSwapDiscriminator...)
	startData = binary.LittleEndian.AppendUint64(startData, amountIn)

	endData := append([]byte(nil), profitOrRevertDiscriminator...)

	start = solana.NewInstruction(net.ProfitGuardProgramID, accounts(), startData)
	end = solana.NewInstruction(net.ProfitGuardProgramID, accounts(), endData)
	return start, end, nil
}
