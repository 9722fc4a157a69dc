package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ordersync/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "ordersync",
	Short: "ordersync - sync e-commerce orders into ledger invoices",
	Long: `ordersync fetches orders in the "processing" state from the order
source and creates matching sales invoices in the ledger system:
contacts are looked up (or created) by email, products are resolved by
SKU, VAT is applied per destination country, and totals are rounded up
to the configured granularity.

Configuration is read from the environment (a .env file is honored).
See the sync and serve subcommands.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
