package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/jito"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/config"
	"github.com/hxuan190/sol-arbitrage/internal/http"
	"github.com/hxuan190/sol-arbitrage/internal/services/arbitrage"
)

// @title Sol Arbitrage API
// @version 1.0-beta
// @description Cross-venue arbitrage between Raydium AMM v4 and CLMM pools on Solana.
// @description
// @description ## - Features
// @description - **Pool Discovery**: Ranks Raydium pools for a mint by liquidity
// @description - **On-chain Pricing**: Decodes AMM v4 and CLMM state and prices pools in the base mint
// @description - **Round Trips**: Buys on the cheaper pool and sells on the dearer one
// @description - **Submission Modes**: Sequential transactions, Jito bundles, or one atomic transaction
// @description
// @description ## - Supported Pools
// @description | Pool | Program ID |
// @description |-----|-----------|
// @description | **Raydium AMM v4** | `675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8` |
// @description | **Raydium CLMM** | `CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK` |
// @description
// @description ## - Usage Tips
// @description - Amounts in requests are human units of the base mint (0.01 = 0.01 SOL)
// @description - Slippage is configured in percent
// @description - Bundle outcomes are polled from the block engine and reported on the attempt
// @description
// @BasePath /
// @schemes http
// @tag.name arbitrage
// @tag.description Trigger round trips and inspect the attempt journal
// @tag.name pools
// @tag.description Discover and price pools for a mint

func main() {
	// GOGC/GOMEMLIMIT defaults
	common.InitRuntime()

	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load general config")
		return
	}
	common.SetupLogger(general.LogLevel, general.Env)

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&config.JitoConfig{},
		&config.ArbitrageConfig{},
		&config.DiscoveryConfig{},
		&config.StorageConfig{},
		&config.LUTConfig{},
	)

	// di container, started in registration order
	dic, err := container.New(
		// config
		conf,

		// adapters
		&blockchain.ChainService{},
		&blockchain.BlockhashCacheService{},
		&jito.JitoService{},
		&raydium.DiscoveryService{},
		&persistence.JournalService{},

		// engine
		&arbitrage.ArbitrageService{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run waits for SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
