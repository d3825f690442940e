package arbitrage

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/jito"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/config"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/confirmation"
	"github.com/hxuan190/sol-arbitrage/internal/services/market"
	"github.com/hxuan190/sol-arbitrage/internal/services/priority"
)

const ARBITRAGE_SERVICE = "arbitrage-svc"

type ArbitrageService struct {
	container.BaseDIInstance
	logger *common.ServiceLogger

	cfg       *config.ArbitrageConfig
	jitoCfg   *config.JitoConfig
	lutCfg    *config.LUTConfig
	network   string
	chain     *blockchain.ChainService
	blockhash *blockchain.BlockhashCacheService
	jitoSvc   *jito.JitoService
	journal   *persistence.JournalService
	discovery *raydium.DiscoveryService

	lut    *builder.LUTManager
	engine *Engine
}

func (svc *ArbitrageService) ID() string {
	return ARBITRAGE_SERVICE
}

func (svc *ArbitrageService) Configure(c container.IContainer) error {
	svc.logger = common.NewServiceLogger(svc)
	svc.cfg = c.GetConfig(config.ARBITRAGE_CONFIG_KEY).(*config.ArbitrageConfig)
	svc.jitoCfg = c.GetConfig(config.JITO_CONFIG_KEY).(*config.JitoConfig)
	svc.lutCfg = c.GetConfig(config.LUT_CONFIG_KEY).(*config.LUTConfig)
	svc.network = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig).Network

	svc.chain = c.Instance(blockchain.CHAIN_SERVICE).(*blockchain.ChainService)
	svc.blockhash = c.Instance(blockchain.BLOCKHASH_CACHE_SERVICE).(*blockchain.BlockhashCacheService)
	svc.jitoSvc = c.Instance(jito.JITO_SERVICE).(*jito.JitoService)
	svc.journal = c.Instance(persistence.JOURNAL_SERVICE).(*persistence.JournalService)
	svc.discovery = c.Instance(raydium.DISCOVERY_SERVICE).(*raydium.DiscoveryService)
	return nil
}

func (svc *ArbitrageService) Start() error {
	net, err := common.LookupNetwork(svc.network)
	if err != nil {
		return err
	}
	payer, err := solana.PrivateKeyFromSolanaKeygenFile(svc.cfg.KeypairPath)
	if err != nil {
		return fmt.Errorf("load keypair %s: %w", svc.cfg.KeypairPath, err)
	}

	client := svc.chain.Client()
	svc.lut = builder.NewLUTManager(client, svc.lutCfg.Addresses, svc.lutCfg.RefreshInterval)
	svc.lut.Start(context.Background())

	var journal AttemptStore
	if j := svc.journal.Journal(); j != nil {
		journal = j
	}

	engine, err := NewEngineFromConfig(EngineParts{
		Network:   net,
		Payer:     payer,
		Chain:     client,
		Blockhash: svc.blockhash,
		Jito:      svc.jitoSvc.Client(),
		Discovery: svc.discovery.Client(),
		Journal:   journal,
		Tables:    svc.lut,
	}, svc.cfg, svc.jitoCfg, svc.discovery.PageSize())
	if err != nil {
		return err
	}
	svc.engine = engine

	svc.logger.Info().
		Str("payer", payer.PublicKey().String()).
		Str("mode", svc.cfg.SubmitMode).
		Str("baseIn", svc.cfg.BaseIn.String()).
		Msg("[ArbitrageService] engine ready")
	return nil
}

func (svc *ArbitrageService) Stop() error {
	if svc.lut != nil {
		svc.lut.Stop()
	}
	return nil
}

func (svc *ArbitrageService) Engine() *Engine {
	return svc.engine
}

// EngineParts are the collaborators an Engine is assembled from.
type EngineParts struct {
	Network   common.Network
	Payer     solana.PrivateKey
	Chain     *blockchain.Client
	Blockhash BlockhashSource
	Jito      *jito.Client
	Discovery Discovery
	Journal   AttemptStore
	Tables    builder.AddressTableSource
}

// NewEngineFromConfig wires the orchestrator, confirmation poller, priority
// fees and pool loader from configuration.
func NewEngineFromConfig(p EngineParts, cfg *config.ArbitrageConfig, jitoCfg *config.JitoConfig, pageSize int) (*Engine, error) {
	baseMint, err := solana.PublicKeyFromBase58(cfg.BaseMint)
	if err != nil {
		return nil, fmt.Errorf("invalid base mint %q: %w", cfg.BaseMint, err)
	}

	deps := Deps{
		Chain:     p.Chain,
		Blockhash: p.Blockhash,
		Fees:      priority.NewService(p.Chain, cfg.UnitBudget),
		Compiler:  builder.NewCompiler(p.Tables),
	}
	if p.Jito != nil {
		deps.Bundler = p.Jito
		deps.Waiter = confirmation.NewPoller(p.Jito, confirmation.Options{
			Delay:                jitoCfg.PollDelay,
			LandingAttempts:      jitoCfg.LandingAttempts,
			FinalizationAttempts: jitoCfg.FinalizationAttempts,
			InvalidGrace:         jitoCfg.InvalidGrace,
		})
	}
	if p.Journal != nil {
		deps.Recorder = p.Journal
	}

	orch := NewOrchestrator(p.Network, p.Payer, deps, Options{
		SellSizePercent: cfg.SellSizePercent,
		UnitBudget:      cfg.UnitBudget,
		UnitPrice:       cfg.UnitPrice,
		AutoPriorityFee: cfg.AutoPriorityFee,
		Urgency:         priority.UrgencyHigh,
		TipLamports:     jitoCfg.TipLamports,
		ProfitGuard:     cfg.ProfitGuard,
		SimulateFirst:   cfg.SimulateFirst,
	})

	return NewEngine(orch, market.NewLoader(p.Chain, p.Network), p.Discovery, p.Journal, Defaults{
		BaseMint:     baseMint,
		BaseIn:       cfg.BaseIn,
		BuySlippage:  cfg.BuySlippage,
		SellSlippage: cfg.SellSlippage,
		Mode:         domain.SubmitMode(cfg.SubmitMode),
		PageSize:     pageSize,
	}), nil
}
