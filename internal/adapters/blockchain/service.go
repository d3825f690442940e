package blockchain

import (
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/config"
)

const CHAIN_SERVICE = "chain-svc"

// ChainService exposes the shared chain Client to the container.
type ChainService struct {
	container.BaseDIInstance

	client *Client
}

func (svc *ChainService) ID() string {
	return CHAIN_SERVICE
}

func (svc *ChainService) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	svc.client = NewClient(rpcConfig.RPCUrl, Options{
		Timeout:     rpcConfig.Timeout,
		MaxAttempts: rpcConfig.MaxRetries,
		Backoff:     rpcConfig.Backoff,
		Concurrency: int64(rpcConfig.Concurrency),
	})
	return nil
}

func (svc *ChainService) Start() error {
	log.Info().
		Dur("timeout", svc.client.opts.Timeout).
		Int("maxAttempts", svc.client.opts.MaxAttempts).
		Int64("concurrency", svc.client.opts.Concurrency).
		Msg("[ChainService] rpc client ready")
	return nil
}

func (svc *ChainService) Stop() error {
	return nil
}

func (svc *ChainService) Client() *Client {
	return svc.client
}
