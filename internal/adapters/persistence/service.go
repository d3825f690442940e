package persistence

import (
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/config"
)

const JOURNAL_SERVICE = "journal-svc"

type JournalService struct {
	container.BaseDIInstance

	cfg     *config.StorageConfig
	journal *Journal
	logger  *common.ServiceLogger
}

func (svc *JournalService) ID() string {
	return JOURNAL_SERVICE
}

func (svc *JournalService) Configure(c container.IContainer) error {
	svc.cfg = c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)
	svc.logger = common.NewServiceLogger(svc)
	return nil
}

func (svc *JournalService) Start() error {
	if !svc.cfg.JournalEnabled {
		svc.logger.Info().Msg("[JournalService] journal disabled")
		return nil
	}
	j, err := NewJournal(svc.cfg.DBPath)
	if err != nil {
		return err
	}
	svc.journal = j
	return nil
}

func (svc *JournalService) Stop() error {
	if svc.journal == nil {
		return nil
	}
	return svc.journal.Close()
}

// Journal is nil when the journal is disabled.
func (svc *JournalService) Journal() *Journal {
	return svc.journal
}
