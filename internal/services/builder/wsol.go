package builder

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/hxuan190/sol-arbitrage/internal/common"
)

// seedLength keeps seeds within the 32-byte limit once base64 encoded.
const seedLength = 24

// RandomSeed returns a fresh seed for a create-with-seed account.
func RandomSeed() (string, error) {
	b := make([]byte, seedLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// WrappedSOLAccount is a temporary token account holding native SOL.
type WrappedSOLAccount struct {
	Address      solana.PublicKey
	Seed         string
	Instructions []solana.Instruction
}

// CreateWrappedSOLAccount creates a token account at CreateWithSeed(owner, seed),
// funds it with rent plus amount lamports and initializes it for the SOL mint.
func CreateWrappedSOLAccount(net common.Network, owner solana.PublicKey, seed string, rentLamports, amount uint64) (*WrappedSOLAccount, error) {
	addr, err := solana.CreateWithSeed(owner, seed, net.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive wsol account: %w", err)
	}

	create := system.NewCreateAccountWithSeedInstructionBuilder().
		SetBase(owner).
		SetSeed(seed).
		SetLamports(rentLamports + amount).
		SetSpace(common.TokenAccountSize).
		SetOwner(net.TokenProgramID).
		SetFundingAccount(owner).
		SetCreatedAccount(addr).
		Build()
	initIx := token.NewInitializeAccountInstruction(addr, net.SOLMint, owner, solana.SysVarRentPubkey).Build()

	return &WrappedSOLAccount{
		Address:      addr,
		Seed:         seed,
		Instructions: []solana.Instruction{create, initIx},
	}, nil
}

// CloseAccountInstruction returns the remaining lamports of a token account to owner.
func CloseAccountInstruction(account, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(account, owner, owner, []solana.PublicKey{}).Build()
}

// TipInstruction transfers lamports to a block engine tip account.
func TipInstruction(from, tipAccount solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, tipAccount).Build()
}
