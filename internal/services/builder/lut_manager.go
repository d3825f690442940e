package builder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
)

type AccountFetcher interface {
	FetchAccount(ctx context.Context, address solana.PublicKey) (*domain.AccountBlob, error)
}

// LUTManager fetches and caches Address Lookup Table states for v0 transactions.
type LUTManager struct {
	fetcher      AccountFetcher
	lutAddresses []solana.PublicKey
	tables       atomic.Value // map[solana.PublicKey]solana.PublicKeySlice
	interval     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLUTManager creates a LUT manager. With no addresses, GetAddressTables
// returns an empty map and transactions compile without lookups.
func NewLUTManager(fetcher AccountFetcher, lutAddresses []solana.PublicKey, refreshInterval time.Duration) *LUTManager {
	m := &LUTManager{
		fetcher:      fetcher,
		lutAddresses: lutAddresses,
		interval:     refreshInterval,
	}
	m.tables.Store(make(map[solana.PublicKey]solana.PublicKeySlice))
	return m
}

// Start fetches LUT states immediately, then refreshes in the background.
func (m *LUTManager) Start(ctx context.Context) {
	if len(m.lutAddresses) == 0 {
		log.Info().Msg("[LUTManager] no LUT addresses configured")
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.Refresh(ctx)

	if m.interval <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Refresh(ctx)
			}
		}
	}()
}

func (m *LUTManager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// GetAddressTables returns the cached lookup tables for solana.TransactionAddressTables.
func (m *LUTManager) GetAddressTables() map[solana.PublicKey]solana.PublicKeySlice {
	return m.tables.Load().(map[solana.PublicKey]solana.PublicKeySlice)
}

func (m *LUTManager) Refresh(ctx context.Context) {
	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(m.lutAddresses))

	for _, addr := range m.lutAddresses {
		blob, err := m.fetcher.FetchAccount(ctx, addr)
		if err != nil {
			log.Warn().Err(err).Str("lut", addr.String()).Msg("[LUTManager] failed to fetch LUT")
			continue
		}
		state, err := addresslookuptable.DecodeAddressLookupTableState(blob.Data)
		if err != nil {
			log.Warn().Err(err).Str("lut", addr.String()).Msg("[LUTManager] failed to decode LUT")
			continue
		}
		if !state.IsActive() {
			log.Warn().Str("lut", addr.String()).Msg("[LUTManager] LUT is deactivated, skipping")
			continue
		}
		tables[addr] = state.Addresses
		log.Debug().
			Str("lut", addr.String()).
			Int("addresses", len(state.Addresses)).
			Msg("[LUTManager] loaded LUT")
	}

	m.tables.Store(tables)
	log.Info().Int("tables", len(tables)).Msg("[LUTManager] refresh complete")
}
