package builder

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
)

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

func GetATAAddress(net common.Network, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	return GetATAAddressForMint(net, wallet, mint, net.TokenProgramID)
}

func GetATAAddressForMint(net common.Network, wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, nil
	}
	ataCacheMu.RUnlock()

	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		net.ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, nil
}

// CreateATAInstruction creates an idempotent ATA creation instruction.
func CreateATAInstruction(net common.Network, payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, err := GetATAAddress(net, owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &createATAInstruction{
		programID:     net.ATAProgramID,
		systemProgram: net.SystemProgramID,
		payer:         payer,
		ata:           ata,
		owner:         owner,
		mint:          mint,
		tokenProgram:  net.TokenProgramID,
	}, ata, nil
}

type createATAInstruction struct {
	programID     solana.PublicKey
	systemProgram solana.PublicKey
	payer         solana.PublicKey
	ata           solana.PublicKey
	owner         solana.PublicKey
	mint          solana.PublicKey
	tokenProgram  solana.PublicKey
}

func (i *createATAInstruction) ProgramID() solana.PublicKey {
	return i.programID
}

func (i *createATAInstruction) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: i.payer, IsSigner: true, IsWritable: true},
		{PublicKey: i.ata, IsSigner: false, IsWritable: true},
		{PublicKey: i.owner, IsSigner: false, IsWritable: false},
		{PublicKey: i.mint, IsSigner: false, IsWritable: false},
		{PublicKey: i.systemProgram, IsSigner: false, IsWritable: false},
		{PublicKey: i.tokenProgram, IsSigner: false, IsWritable: false},
	}
}

func (i *createATAInstruction) Data() ([]byte, error) {
	return []byte{1}, nil
}

// MarketAuthority derives the OpenBook vault signer from the market id and nonce.
func MarketAuthority(net common.Network, market solana.PublicKey, nonce uint64) (solana.PublicKey, error) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	addr, err := solana.CreateProgramAddress([][]byte{market[:], n[:]}, net.OpenBookProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive market authority: %w", err)
	}
	return addr, nil
}

// SwapStateAddress is the profit guard program's state account.
func SwapStateAddress(net common.Network) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte(common.SwapStateSeed)}, net.ProfitGuardProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive swap state: %w", err)
	}
	return pda, nil
}
