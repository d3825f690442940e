package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hxuan190/sol-arbitrage/internal/common"
)

func main() {
	root := &cobra.Command{
		Use:          "arbctl",
		Short:        "Raydium cross-pool arbitrage from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env")
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env") {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			level, _ := cmd.Flags().GetString("log-level")
			common.SetupLogger(level, "dev")
			return nil
		},
	}
	root.PersistentFlags().String("env", ".env", "env file with RPC and engine settings")
	root.PersistentFlags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	discoverCmd := &cobra.Command{
		Use:   "discover <mint>",
		Short: "List pools pairing mint with the base mint",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiscover,
	}
	root.AddCommand(discoverCmd)

	priceCmd := &cobra.Command{
		Use:   "price <mint>",
		Short: "Price every discovered pool for mint from chain state",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrice,
	}
	priceCmd.Flags().String("pool", "", "price a single pool address instead of discovering")
	root.AddCommand(priceCmd)

	runCmd := &cobra.Command{
		Use:   "run <mint>",
		Short: "Execute one buy-low sell-high round trip",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runArbitrage,
	}
	runCmd.Flags().String("base-in", "", "base amount in human units, defaults to BASE_IN")
	runCmd.Flags().String("mode", "", "sequential, bundled or single, defaults to SUBMIT_MODE")
	runCmd.Flags().String("pool-a", "", "first pool address, discovered when empty")
	runCmd.Flags().String("pool-b", "", "second pool address, discovered when empty")
	root.AddCommand(runCmd)

	attemptsCmd := &cobra.Command{
		Use:   "attempts",
		Short: "Show journaled attempts, newest first",
		Args:  cobra.NoArgs,
		RunE:  runAttempts,
	}
	attemptsCmd.Flags().Int("limit", 20, "maximum attempts to show")
	root.AddCommand(attemptsCmd)

	root.AddCommand(&cobra.Command{
		Use:   "bundle <bundle-id>",
		Short: "Show the journaled attempt that submitted a bundle",
		Args:  cobra.ExactArgs(1),
		RunE:  runBundle,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
