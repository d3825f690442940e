package raydium

import (
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/config"
)

const DISCOVERY_SERVICE = "discovery-svc"

type DiscoveryService struct {
	container.BaseDIInstance

	client   *Client
	pageSize int
}

func (svc *DiscoveryService) ID() string {
	return DISCOVERY_SERVICE
}

func (svc *DiscoveryService) Configure(c container.IContainer) error {
	cfg := c.GetConfig(config.DISCOVERY_CONFIG_KEY).(*config.DiscoveryConfig)
	svc.client = NewClient(cfg.RaydiumAPIURL, 10*time.Second)
	svc.pageSize = cfg.PageSize
	return nil
}

func (svc *DiscoveryService) Start() error {
	log.Info().Str("api", svc.client.baseURL).Msg("[DiscoveryService] raydium discovery ready")
	return nil
}

func (svc *DiscoveryService) Stop() error {
	return nil
}

func (svc *DiscoveryService) Client() *Client {
	return svc.client
}

func (svc *DiscoveryService) PageSize() int {
	return svc.pageSize
}
