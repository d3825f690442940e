package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/services/arbitrage"
)

func printJSON(v interface{}) error {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func parseKey(name, s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return key, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return key, nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	mint, err := parseKey("mint", args[0])
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	candidates, err := s.engine.Candidates(ctx, mint)
	if err != nil {
		return err
	}
	return printJSON(candidates)
}

type priceLine struct {
	Pool      string `json:"pool"`
	Kind      string `json:"kind"`
	QuoteMint string `json:"quote_mint"`
	Price     string `json:"price"`
}

func toPriceLine(p *domain.PoolPrice) priceLine {
	return priceLine{
		Pool:      p.Pool.String(),
		Kind:      p.Kind.String(),
		QuoteMint: p.QuoteMint.String(),
		Price:     p.Price.String(),
	}
}

func runPrice(cmd *cobra.Command, args []string) error {
	mint, err := parseKey("mint", args[0])
	if err != nil {
		return err
	}
	poolFlag, _ := cmd.Flags().GetString("pool")
	pool, err := parseKey("pool", poolFlag)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if !pool.IsZero() {
		p, err := s.engine.PoolPrice(ctx, pool)
		if err != nil {
			return err
		}
		return printJSON(toPriceLine(p))
	}

	prices, err := s.engine.Prices(ctx, mint)
	if err != nil {
		return err
	}
	lines := make([]priceLine, 0, len(prices))
	for _, p := range prices {
		lines = append(lines, toPriceLine(p))
	}
	return printJSON(lines)
}

func runArbitrage(cmd *cobra.Command, args []string) error {
	var req arbitrage.RunRequest
	var err error
	if len(args) == 1 {
		if req.TokenMint, err = parseKey("mint", args[0]); err != nil {
			return err
		}
	}
	poolA, _ := cmd.Flags().GetString("pool-a")
	poolB, _ := cmd.Flags().GetString("pool-b")
	if req.PoolA, err = parseKey("pool-a", poolA); err != nil {
		return err
	}
	if req.PoolB, err = parseKey("pool-b", poolB); err != nil {
		return err
	}
	if baseIn, _ := cmd.Flags().GetString("base-in"); baseIn != "" {
		if req.BaseIn, err = decimal.NewFromString(baseIn); err != nil || !req.BaseIn.IsPositive() {
			return fmt.Errorf("invalid base-in %q", baseIn)
		}
	}
	mode, _ := cmd.Flags().GetString("mode")
	req.Mode = domain.SubmitMode(mode)

	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.engine.Run(ctx, req)
	if res != nil && res.Legs != nil {
		ev := log.Info().
			Str("buyPool", res.Legs.Buy.Address().String()).
			Str("sellPool", res.Legs.Sell.Address().String()).
			Str("buyPrice", res.Legs.BuyPrice.String()).
			Str("sellPrice", res.Legs.SellPrice.String())
		if bps, ok := res.Legs.SpreadBps(); ok {
			ev = ev.Float64("spreadBps", bps)
		}
		ev.Msg("[arbctl] legs selected")
	}
	if res != nil && res.Attempt != nil {
		if perr := printJSON(res.Attempt); perr != nil {
			return perr
		}
	}
	return err
}

func runAttempts(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	attempts, err := s.engine.Attempts(limit)
	if err != nil {
		return err
	}
	return printJSON(attempts)
}

func runBundle(_ *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	attempt, err := s.engine.AttemptByBundle(args[0])
	if err != nil {
		return err
	}
	return printJSON(attempt)
}
