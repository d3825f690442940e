package builder

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrNoInstructions = errors.New("no instructions to compile")

type AddressTableSource interface {
	GetAddressTables() map[solana.PublicKey]solana.PublicKeySlice
}

// Compiler turns instruction lists into signed transactions.
type Compiler struct {
	tables AddressTableSource
}

func NewCompiler(tables AddressTableSource) *Compiler {
	return &Compiler{tables: tables}
}

// Compile creates a transaction paid by payer. Lookup tables, when configured,
// produce a v0 message.
func (c *Compiler) Compile(instructions []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, ErrNoInstructions
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(payer)}
	if c.tables != nil {
		if tables := c.tables.GetAddressTables(); len(tables) > 0 {
			opts = append(opts, solana.TransactionAddressTables(tables))
		}
	}

	tx, err := solana.NewTransaction(instructions, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}
	return tx, nil
}

// CompileAndSign compiles and signs with the payer, the only required signer.
func (c *Compiler) CompileAndSign(instructions []solana.Instruction, blockhash solana.Hash, payer solana.PrivateKey) (*solana.Transaction, error) {
	tx, err := c.Compile(instructions, blockhash, payer.PublicKey())
	if err != nil {
		return nil, err
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}
