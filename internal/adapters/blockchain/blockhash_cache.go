package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/metrics"
)

const BLOCKHASH_CACHE_SERVICE = "cache-blockhash-svc"

const (
	blockhashMaxAge         = 2 * time.Second
	blockhashRefreshEvery   = time.Second
	blockhashRefreshTimeout = 5 * time.Second
)

type CachedBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	UpdatedAt            time.Time
}

// BlockhashCacheService keeps a recent blockhash warm so transaction compilation
// does not pay an RPC round trip.
type BlockhashCacheService struct {
	container.BaseDIInstance

	mu      sync.RWMutex
	current *CachedBlockhash
	client  *Client

	cancel context.CancelFunc
	done   chan struct{}
}

func NewBlockhashCache(client *Client) *BlockhashCacheService {
	return &BlockhashCacheService{client: client}
}

func (svc *BlockhashCacheService) ID() string {
	return BLOCKHASH_CACHE_SERVICE
}

func (svc *BlockhashCacheService) Configure(c container.IContainer) error {
	svc.client = c.Instance(CHAIN_SERVICE).(*ChainService).Client()
	return nil
}

func (svc *BlockhashCacheService) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	svc.cancel = cancel
	svc.done = make(chan struct{})

	if err := svc.refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("[BlockhashCacheService] failed to fetch initial blockhash, will retry on first request")
	}

	go svc.loop(ctx)
	return nil
}

func (svc *BlockhashCacheService) Stop() error {
	if svc.cancel != nil {
		svc.cancel()
		<-svc.done
	}
	return nil
}

func (svc *BlockhashCacheService) loop(ctx context.Context) {
	defer close(svc.done)

	ticker := time.NewTicker(blockhashRefreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.refresh(ctx); err != nil && ctx.Err() == nil {
				log.Debug().Err(err).Msg("[BlockhashCacheService] refresh failed")
			}
		}
	}
}

func (svc *BlockhashCacheService) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, blockhashRefreshTimeout)
	defer cancel()

	res, err := svc.client.fetchBlockhashWithHeight(ctx)
	if err != nil {
		return err
	}
	svc.store(res)
	return nil
}

func (svc *BlockhashCacheService) store(res blockhashResult) *CachedBlockhash {
	cached := &CachedBlockhash{
		Blockhash:            res.hash,
		LastValidBlockHeight: res.lastValidHeight,
		UpdatedAt:            time.Now(),
	}
	svc.mu.Lock()
	svc.current = cached
	svc.mu.Unlock()
	return cached
}

// GetBlockhash serves the cached blockhash when it is younger than two seconds,
// otherwise fetches a fresh one. A stale cached value is returned if the fetch fails.
func (svc *BlockhashCacheService) GetBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	svc.mu.RLock()
	cached := svc.current
	svc.mu.RUnlock()

	if cached != nil {
		age := time.Since(cached.UpdatedAt)
		metrics.BlockhashAge.Set(age.Seconds())
		if age < blockhashMaxAge {
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
	}

	res, err := svc.client.fetchBlockhashWithHeight(ctx)
	if err != nil {
		if cached != nil {
			return cached.Blockhash, cached.LastValidBlockHeight, nil
		}
		return solana.Hash{}, 0, err
	}
	fresh := svc.store(res)
	return fresh.Blockhash, fresh.LastValidBlockHeight, nil
}

// LatestBlockhash satisfies the blockhash source used by transaction compilation.
func (svc *BlockhashCacheService) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	h, _, err := svc.GetBlockhash(ctx)
	return h, err
}
