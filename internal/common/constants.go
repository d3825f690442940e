// Package common contains the network table and helpers shared across services
package common

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	MainnetNetwork = "mainnet"

	SOLDecimals = 9
	// TokenAccountSize is the SPL token account length used for rent exemption.
	TokenAccountSize = 165

	TickArrayBitmapExtensionSeed = "pool_tick_array_bitmap_extension"
	TickArraySeed                = "tick_array"
	SwapStateSeed                = "swap_state"
)

// Network holds the program and mint identifiers for one cluster.
// Values handed out by LookupNetwork are copies; the table itself is never mutated.
type Network struct {
	Name   string
	RPCURL string

	AmmV4ProgramID    solana.PublicKey
	AmmV4Authority    solana.PublicKey
	OpenBookProgramID solana.PublicKey
	ClmmProgramID     solana.PublicKey

	TokenProgramID         solana.PublicKey
	Token2022ProgramID     solana.PublicKey
	MemoProgramID          solana.PublicKey
	ATAProgramID           solana.PublicKey
	SystemProgramID        solana.PublicKey
	ComputeBudgetProgramID solana.PublicKey
	ProfitGuardProgramID   solana.PublicKey

	SOLMint solana.PublicKey

	JitoBlockEngineURL string
	JitoTipAccounts    []solana.PublicKey
	RaydiumAPIURL      string
}

var networks = map[string]Network{
	MainnetNetwork: {
		Name:   MainnetNetwork,
		RPCURL: "https://api.mainnet-beta.solana.com",

		AmmV4ProgramID:    solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"),
		AmmV4Authority:    solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"),
		OpenBookProgramID: solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"),
		ClmmProgramID:     solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"),

		TokenProgramID:         solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"),
		Token2022ProgramID:     solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"),
		MemoProgramID:          solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"),
		ATAProgramID:           solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"),
		SystemProgramID:        solana.SystemProgramID,
		ComputeBudgetProgramID: solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111"),
		ProfitGuardProgramID:   solana.MustPublicKeyFromBase58("Fn52o2N4NS77kvXVyTeuDTSXRL1x9uCx6712sNonB62x"),

		SOLMint: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),

		JitoBlockEngineURL: "https://mainnet.block-engine.jito.wtf",
		JitoTipAccounts: []solana.PublicKey{
			solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
			solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
			solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
			solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
			solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
			solana.MustPublicKeyFromBase58("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
			solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
			solana.MustPublicKeyFromBase58("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
		},
		RaydiumAPIURL: "https://api-v3.raydium.io",
	},
}

// LookupNetwork returns a copy of the named network.
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", name)
	}
	n.JitoTipAccounts = append([]solana.PublicKey(nil), n.JitoTipAccounts...)
	return n, nil
}

// MustNetwork is LookupNetwork for names known at compile time.
func MustNetwork(name string) Network {
	n, err := LookupNetwork(name)
	if err != nil {
		panic(err)
	}
	return n
}
