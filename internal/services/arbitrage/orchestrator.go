// Package arbitrage runs one buy-then-sell round trip across two pools
// quoting the same pair.
package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/metrics"
	"github.com/hxuan190/sol-arbitrage/internal/services/builder"
	"github.com/hxuan190/sol-arbitrage/internal/services/confirmation"
	"github.com/hxuan190/sol-arbitrage/internal/services/market"
	"github.com/hxuan190/sol-arbitrage/internal/services/priority"
	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

var (
	ErrPairMismatch     = errors.New("pools do not quote the same pair")
	ErrBuyFailed        = errors.New("buy leg submission failed")
	ErrSellFailed       = errors.New("sell leg submission failed")
	ErrSimulationFailed = errors.New("simulation failed")
	ErrUnknownMode      = errors.New("unknown submit mode")
	ErrNoBundler        = errors.New("bundled mode requires a bundle client")
)

// Chain is the subset of the chain client the orchestrator calls.
type Chain interface {
	FetchRentExemption(ctx context.Context, size uint64) (uint64, error)
	FetchOwnedTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error)
	SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*domain.SimulationResult, error)
}

type BlockhashSource interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

type Bundler interface {
	SendBundle(ctx context.Context, txs []*solana.Transaction) (string, error)
	RandomTipAccount(ctx context.Context) (solana.PublicKey, error)
}

type BundleWaiter interface {
	Wait(ctx context.Context, bundleID string) (*domain.BundleStatus, error)
}

type FeeEstimator interface {
	FeeFor(ctx context.Context, urgency priority.Urgency, accounts []solana.PublicKey) uint64
}

// UnitSizer sizes the compute budget of a compiled transaction by simulation.
type UnitSizer interface {
	GetPriorityConfig(ctx context.Context, tx *solana.Transaction, urgency priority.Urgency) *priority.PriorityConfig
	BuildPriorityInstructions(config *priority.PriorityConfig) []solana.Instruction
}

type Recorder interface {
	Record(a *domain.Attempt) error
}

type Options struct {
	SellSizePercent uint64
	UnitBudget      uint32
	UnitPrice       uint64
	AutoPriorityFee bool
	Urgency         priority.Urgency
	TipLamports     uint64
	ProfitGuard     bool
	SimulateFirst   bool
}

func DefaultOptions() Options {
	return Options{
		SellSizePercent: 95,
		UnitBudget:      400_000,
		UnitPrice:       100_000,
		Urgency:         priority.UrgencyMedium,
		TipLamports:     10_000,
	}
}

type Request struct {
	PoolA        market.Pool
	PoolB        market.Pool
	BaseMint     solana.PublicKey
	BaseIn       decimal.Decimal
	BuySlippage  decimal.Decimal
	SellSlippage decimal.Decimal
	Mode         domain.SubmitMode
}

type Result struct {
	Attempt    *domain.Attempt
	Legs       *Legs
	Buy        *market.LegResult
	Sell       *market.LegResult
	Signatures []solana.Signature
	Bundle     *domain.BundleStatus
}

type Deps struct {
	Chain     Chain
	Blockhash BlockhashSource
	Bundler   Bundler
	Waiter    BundleWaiter
	Fees      FeeEstimator
	Recorder  Recorder
	Compiler  *builder.Compiler
}

type Orchestrator struct {
	net   common.Network
	payer solana.PrivateKey
	deps  Deps
	opts  Options
}

func NewOrchestrator(net common.Network, payer solana.PrivateKey, deps Deps, opts Options) *Orchestrator {
	if deps.Compiler == nil {
		deps.Compiler = builder.NewCompiler(nil)
	}
	return &Orchestrator{net: net, payer: payer, deps: deps, opts: opts}
}

// plan is the fully built round trip before submission.
type plan struct {
	baseAccount  solana.PublicKey
	quoteAccount solana.PublicKey
	setup        []solana.Instruction
	teardown     []solana.Instruction
	buy          *market.LegResult
	sell         *market.LegResult
}

// Run executes one attempt. The attempt is recorded whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	attempt := &domain.Attempt{
		ID:        uuid.NewString(),
		StartedAt: start,
		Mode:      req.Mode,
		BaseMint:  req.BaseMint.String(),
	}
	res := &Result{Attempt: attempt}

	err := o.run(ctx, req, res)

	attempt.EndedAt = time.Now()
	status := "success"
	if err != nil {
		attempt.Err = err.Error()
		status = "failed"
		if errors.Is(err, confirmation.ErrOutcomeUnknown) {
			status = "unknown"
		}
	}
	metrics.Attempts.WithLabelValues(string(req.Mode), status).Inc()
	metrics.AttemptDuration.WithLabelValues(string(req.Mode)).Observe(attempt.EndedAt.Sub(start).Seconds())

	if o.deps.Recorder != nil {
		if rerr := o.deps.Recorder.Record(attempt); rerr != nil {
			log.Error().Err(rerr).Str("attempt", attempt.ID).Msg("[Orchestrator] failed to record attempt")
		}
	}

	logEvent := log.Info()
	if err != nil {
		logEvent = log.Error().Err(err)
	}
	logEvent.
		Str("attempt", attempt.ID).
		Str("mode", string(req.Mode)).
		Strs("signatures", attempt.Signatures).
		Dur("took", attempt.EndedAt.Sub(start)).
		Msg("[Orchestrator] attempt finished")

	return res, err
}

func (o *Orchestrator) run(ctx context.Context, req Request, res *Result) error {
	switch req.Mode {
	case domain.SubmitSequential, domain.SubmitSingle:
	case domain.SubmitBundled:
		if o.deps.Bundler == nil || o.deps.Waiter == nil {
			return ErrNoBundler
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	legs, err := SelectLegs(req.PoolA, req.PoolB, req.BaseMint)
	if err != nil {
		return err
	}
	res.Legs = legs
	a := res.Attempt
	a.QuoteMint = legs.QuoteMint.String()
	a.BuyPool = legs.Buy.Address().String()
	a.SellPool = legs.Sell.Address().String()
	a.BuyPrice = legs.BuyPrice.String()
	a.SellPrice = legs.SellPrice.String()
	if bps, ok := legs.SpreadBps(); ok {
		metrics.PriceSpreadBps.Observe(bps)
	}

	p, err := o.build(ctx, req, legs)
	if err != nil {
		return err
	}
	res.Buy, res.Sell = p.buy, p.sell
	a.BaseInRaw = p.buy.AmountInRaw
	a.BuyMinimumOut = p.buy.MinimumOutRaw
	a.SellQuoteIn = p.sell.AmountInRaw
	a.SellMinimum = p.sell.MinimumOutRaw
	if _, quoteDec, err := legs.Sell.Decimals(req.BaseMint); err == nil {
		a.BuyImpactBps, a.SellImpactBps = legImpacts(legs, req.BaseIn, p, quoteDec)
		worst := max(a.BuyImpactBps, a.SellImpactBps)
		if worst >= ImpactHigh {
			log.Warn().
				Str("attempt", a.ID).
				Uint16("buyImpactBps", a.BuyImpactBps).
				Uint16("sellImpactBps", a.SellImpactBps).
				Str("severity", string(Severity(worst))).
				Msg("[Orchestrator] high price impact")
		}
	}

	switch req.Mode {
	case domain.SubmitSequential:
		return o.submitSequential(ctx, p, res)
	case domain.SubmitBundled:
		return o.submitBundled(ctx, p, res)
	default:
		return o.submitSingle(ctx, p, res)
	}
}

func (o *Orchestrator) build(ctx context.Context, req Request, legs *Legs) (*plan, error) {
	owner := o.payer.PublicKey()
	p := &plan{}

	baseDec, _, err := legs.Buy.Decimals(req.BaseMint)
	if err != nil {
		return nil, err
	}
	baseInRaw, err := quoter.ToRaw(req.BaseIn, baseDec)
	if err != nil {
		return nil, err
	}

	if req.BaseMint.Equals(o.net.SOLMint) {
		rent, err := o.deps.Chain.FetchRentExemption(ctx, common.TokenAccountSize)
		if err != nil {
			return nil, fmt.Errorf("rent exemption: %w", err)
		}
		seed, err := builder.RandomSeed()
		if err != nil {
			return nil, err
		}
		wsol, err := builder.CreateWrappedSOLAccount(o.net, owner, seed, rent, baseInRaw)
		if err != nil {
			return nil, err
		}
		p.baseAccount = wsol.Address
		p.setup = append(p.setup, wsol.Instructions...)
		p.teardown = append(p.teardown, builder.CloseAccountInstruction(wsol.Address, owner))
	} else {
		acc, ixs, err := o.resolveTokenAccount(ctx, owner, req.BaseMint)
		if err != nil {
			return nil, err
		}
		p.baseAccount = acc
		p.setup = append(p.setup, ixs...)
	}

	quoteAcc, ixs, err := o.resolveTokenAccount(ctx, owner, legs.QuoteMint)
	if err != nil {
		return nil, err
	}
	p.quoteAccount = quoteAcc
	p.setup = append(p.setup, ixs...)

	p.buy, err = legs.Buy.BuildBuyInstructions(market.BuyParams{
		BaseIn:       req.BaseIn,
		Slippage:     req.BuySlippage,
		BaseMint:     req.BaseMint,
		BaseAccount:  p.baseAccount,
		QuoteAccount: p.quoteAccount,
		Owner:        owner,
	})
	if err != nil {
		return nil, fmt.Errorf("build buy leg: %w", err)
	}

	available, err := SellSize(p.buy.MinimumOutRaw, o.opts.SellSizePercent)
	if err != nil {
		return nil, err
	}
	p.sell, err = legs.Sell.BuildSellInstructions(market.SellParams{
		QuoteAvailable: available,
		Percentage:     100,
		Slippage:       req.SellSlippage,
		BaseMint:       req.BaseMint,
		BaseAccount:    p.baseAccount,
		QuoteAccount:   p.quoteAccount,
		Owner:          owner,
	})
	if err != nil {
		return nil, fmt.Errorf("build sell leg: %w", err)
	}
	return p, nil
}

// SellSize is the raw quote amount the sell leg spends: pct percent of the
// buy leg's guaranteed minimum.
func SellSize(buyMinimum, pct uint64) (uint64, error) {
	if pct > 100 {
		return 0, fmt.Errorf("%w: %d", market.ErrInvalidPercentage, pct)
	}
	return market.SellAmount(buyMinimum, int(pct))
}

// resolveTokenAccount returns an existing token account for mint, or the ATA
// along with its idempotent create instruction.
func (o *Orchestrator) resolveTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, []solana.Instruction, error) {
	acc, err := o.deps.Chain.FetchOwnedTokenAccount(ctx, owner, mint)
	if err == nil {
		return acc, nil, nil
	}
	if !errors.Is(err, blockchain.ErrNotFound) {
		return solana.PublicKey{}, nil, fmt.Errorf("token account for %s: %w", mint, err)
	}
	ix, ata, err := builder.CreateATAInstruction(o.net, owner, owner, mint)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return ata, []solana.Instruction{ix}, nil
}

func (o *Orchestrator) budget(ctx context.Context, ixs []solana.Instruction) []solana.Instruction {
	price := o.opts.UnitPrice
	if o.opts.AutoPriorityFee && o.deps.Fees != nil {
		price = o.deps.Fees.FeeFor(ctx, o.opts.Urgency, priority.WritableAccounts(ixs))
	}
	return builder.ComputeBudgetInstructions(o.opts.UnitBudget, price)
}

func concat(parts ...[]solana.Instruction) []solana.Instruction {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]solana.Instruction, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func (o *Orchestrator) compile(ctx context.Context, lists ...[]solana.Instruction) ([]*solana.Transaction, error) {
	hash, err := o.deps.Blockhash.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("blockhash: %w", err)
	}
	txs := make([]*solana.Transaction, 0, len(lists))
	for _, ixs := range lists {
		tx, err := o.deps.Compiler.CompileAndSign(ixs, hash, o.payer)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (o *Orchestrator) simulate(ctx context.Context, tx *solana.Transaction) error {
	if !o.opts.SimulateFirst {
		return nil
	}
	sim, err := o.deps.Chain.SimulateTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSimulationFailed, err)
	}
	if !sim.Success {
		return fmt.Errorf("%w: %s", ErrSimulationFailed, sim.Error)
	}
	return nil
}

func (o *Orchestrator) legInstructions(ctx context.Context, p *plan, tip []solana.Instruction) (buy, sell []solana.Instruction) {
	buyBody := concat(p.setup, p.buy.Instructions)
	sellBody := concat(p.sell.Instructions, p.teardown, tip)
	return concat(o.budget(ctx, buyBody), buyBody), concat(o.budget(ctx, sellBody), sellBody)
}

// quoteResidual is the raw quote the sell leg leaves behind when it spends
// less than the buy minimum.
func quoteResidual(p *plan) uint64 {
	if p.sell.AmountInRaw >= p.buy.MinimumOutRaw {
		return 0
	}
	return p.buy.MinimumOutRaw - p.sell.AmountInRaw
}

func (o *Orchestrator) submitSequential(ctx context.Context, p *plan, res *Result) error {
	// The sell closes the quote account, which the token program refuses
	// while a balance remains. Sent alone it can revert after the buy landed.
	if residual := quoteResidual(p); residual > 0 {
		res.Attempt.QuoteResidual = residual
		log.Warn().
			Str("attempt", res.Attempt.ID).
			Uint64("residual", residual).
			Msg("[Orchestrator] sequential sell leaves quote behind and closes the account, the sell may revert after the buy lands")
	}

	buyIxs, sellIxs := o.legInstructions(ctx, p, nil)
	txs, err := o.compile(ctx, buyIxs, sellIxs)
	if err != nil {
		return err
	}
	if err := o.simulate(ctx, txs[0]); err != nil {
		return err
	}

	buySig, err := o.deps.Chain.SubmitTransaction(ctx, txs[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuyFailed, err)
	}
	o.addSignature(res, buySig)

	sellSig, err := o.deps.Chain.SubmitTransaction(ctx, txs[1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSellFailed, err)
	}
	o.addSignature(res, sellSig)
	return nil
}

func (o *Orchestrator) submitBundled(ctx context.Context, p *plan, res *Result) error {
	tipAccount, err := o.deps.Bundler.RandomTipAccount(ctx)
	if err != nil {
		return fmt.Errorf("tip account: %w", err)
	}
	tip := []solana.Instruction{builder.TipInstruction(o.payer.PublicKey(), tipAccount, o.opts.TipLamports)}

	buyIxs, sellIxs := o.legInstructions(ctx, p, tip)
	txs, err := o.compile(ctx, buyIxs, sellIxs)
	if err != nil {
		return err
	}
	if err := o.simulate(ctx, txs[0]); err != nil {
		return err
	}
	for _, tx := range txs {
		o.addSignature(res, tx.Signatures[0])
	}

	bundleID, err := o.deps.Bundler.SendBundle(ctx, txs)
	if err != nil {
		return err
	}
	log.Info().Str("bundle", bundleID).Msg("[Orchestrator] bundle accepted")

	status, err := o.deps.Waiter.Wait(ctx, bundleID)
	res.Bundle = status
	res.Attempt.Bundle = status
	if status == nil {
		res.Attempt.Bundle = &domain.BundleStatus{BundleID: bundleID, State: domain.BundlePending}
	}
	return err
}

func (o *Orchestrator) submitSingle(ctx context.Context, p *plan, res *Result) error {
	body := concat(p.buy.Instructions, p.sell.Instructions)
	if o.opts.ProfitGuard {
		start, end, err := builder.ProfitGuardInstructions(o.net, p.baseAccount, p.buy.AmountInRaw)
		if err != nil {
			return err
		}
		body = concat([]solana.Instruction{start}, body, []solana.Instruction{end})
	}
	body = concat(p.setup, body, p.teardown)

	txs, err := o.compile(ctx, concat(o.budget(ctx, body), body))
	if err != nil {
		return err
	}
	if sizer, ok := o.deps.Fees.(UnitSizer); ok && o.opts.AutoPriorityFee {
		cfg := sizer.GetPriorityConfig(ctx, txs[0], o.opts.Urgency)
		log.Debug().
			Uint32("units", cfg.ComputeUnits).
			Uint64("unitPrice", cfg.PriorityFee).
			Bool("simulated", cfg.Simulated).
			Msg("[Orchestrator] sized single transaction")
		if txs, err = o.compile(ctx, concat(sizer.BuildPriorityInstructions(cfg), body)); err != nil {
			return err
		}
	}
	if err := o.simulate(ctx, txs[0]); err != nil {
		return err
	}

	sig, err := o.deps.Chain.SubmitTransaction(ctx, txs[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuyFailed, err)
	}
	o.addSignature(res, sig)
	return nil
}

func (o *Orchestrator) addSignature(res *Result, sig solana.Signature) {
	res.Signatures = append(res.Signatures, sig)
	res.Attempt.Signatures = append(res.Attempt.Signatures, sig.String())
}
