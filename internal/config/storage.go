package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
)

type StorageConfig struct {
	// DBPath is the BoltDB file holding the attempt journal.
	// Default: "./data/arbitrage.db"
	DBPath string

	// JournalEnabled controls whether attempts are recorded to disk.
	// Default: true
	JournalEnabled bool
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("JOURNAL_DB_PATH", "./data/arbitrage.db")
	c.JournalEnabled = common.GetEnvOrDefault("JOURNAL_ENABLED", "true") == "true"
	return nil
}

func (c *StorageConfig) Validate() error {
	return nil
}
