package jito

import (
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/config"
)

const (
	JITO_SERVICE = "jito-svc"

	requestTimeout = 10 * time.Second
)

type JitoService struct {
	container.BaseDIInstance

	client *Client
	cfg    *config.JitoConfig
}

func (svc *JitoService) ID() string {
	return JITO_SERVICE
}

func (svc *JitoService) Configure(c container.IContainer) error {
	svc.cfg = c.GetConfig(config.JITO_CONFIG_KEY).(*config.JitoConfig)
	general := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)

	net, err := common.LookupNetwork(general.Network)
	if err != nil {
		return err
	}
	svc.client = NewClient(svc.cfg.BlockEngineURL, requestTimeout, net.JitoTipAccounts)
	return nil
}

func (svc *JitoService) Start() error {
	log.Info().
		Str("blockEngine", svc.cfg.BlockEngineURL).
		Uint64("tipLamports", svc.cfg.TipLamports).
		Msg("[JitoService] bundle client ready")
	return nil
}

func (svc *JitoService) Stop() error {
	return nil
}

func (svc *JitoService) Client() *Client {
	return svc.client
}
