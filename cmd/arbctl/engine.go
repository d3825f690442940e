package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/jito"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/config"
	"github.com/hxuan190/sol-arbitrage/internal/services/arbitrage"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
)

const clientTimeout = 10 * time.Second

type loader interface {
	Load() error
}

// session is an engine assembled outside the DI container.
type session struct {
	engine  *arbitrage.Engine
	journal *persistence.Journal
}

func (s *session) Close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// openSession loads configuration from the environment. The keypair is only
// read when withSigner is set.
func openSession(ctx context.Context, withSigner bool) (*session, error) {
	general := &config.GeneralConfig{}
	rpcCfg := &config.RPCConfig{}
	jitoCfg := &config.JitoConfig{}
	arbCfg := &config.ArbitrageConfig{}
	discoveryCfg := &config.DiscoveryConfig{}
	storageCfg := &config.StorageConfig{}
	lutCfg := &config.LUTConfig{}
	for _, c := range []loader{general, rpcCfg, jitoCfg, arbCfg, discoveryCfg, storageCfg, lutCfg} {
		if err := c.Load(); err != nil {
			return nil, err
		}
	}

	net, err := common.LookupNetwork(general.Network)
	if err != nil {
		return nil, err
	}

	var payer solana.PrivateKey
	if withSigner {
		if payer, err = solana.PrivateKeyFromSolanaKeygenFile(arbCfg.KeypairPath); err != nil {
			return nil, fmt.Errorf("load keypair %s: %w", arbCfg.KeypairPath, err)
		}
	}

	client := blockchain.NewClient(rpcCfg.RPCUrl, blockchain.Options{
		Timeout:     rpcCfg.Timeout,
		MaxAttempts: rpcCfg.MaxRetries,
		Backoff:     rpcCfg.Backoff,
		Concurrency: int64(rpcCfg.Concurrency),
	})

	tables := builder.NewLUTManager(client, lutCfg.Addresses, lutCfg.RefreshInterval)
	if withSigner && len(lutCfg.Addresses) > 0 {
		tables.Refresh(ctx)
	}

	s := &session{}
	var journal arbitrage.AttemptStore
	if storageCfg.JournalEnabled {
		if s.journal, err = persistence.NewJournal(storageCfg.DBPath); err != nil {
			return nil, err
		}
		journal = s.journal
	}

	s.engine, err = arbitrage.NewEngineFromConfig(arbitrage.EngineParts{
		Network:   net,
		Payer:     payer,
		Chain:     client,
		Blockhash: blockchain.NewBlockhashCache(client),
		Jito:      jito.NewClient(jitoCfg.BlockEngineURL, clientTimeout, net.JitoTipAccounts),
		Discovery: raydium.NewClient(discoveryCfg.RaydiumAPIURL, clientTimeout),
		Journal:   journal,
		Tables:    tables,
	}, arbCfg, jitoCfg, discoveryCfg.PageSize)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
