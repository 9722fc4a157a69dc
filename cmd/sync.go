package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"ordersync/internal/config"
	"ordersync/internal/logger"
	"ordersync/internal/pipeline"
)

var (
	syncCacheFile string
	syncNoCache   bool
	syncTimeout   int
)

var syncCmd = &cobra.Command{
	Use:   "sync [order-id]",
	Short: "Create ledger invoices for processing orders",
	Long: `Sync fetches orders from the order source and creates a sales
invoice in the ledger for each one. Without an argument every order in
the "processing" state is synced; with an order id only that order is.

Each order is validated, its contact and products are resolved in the
ledger (created when missing), VAT is applied for the destination
country, and the invoice total is rounded up to the configured
granularity. Failures are reported per order and never abort the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncCacheFile, "cache-file", "", "path for the persisted lookup cache (default from CACHE_FILE)")
	syncCmd.Flags().BoolVar(&syncNoCache, "no-cache", false, "keep the lookup cache in memory only")
	syncCmd.Flags().IntVar(&syncTimeout, "timeout", 600, "overall timeout in seconds")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("sync")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	application, err := buildApp(cfg, syncCacheFile, syncNoCache)
	if err != nil {
		return err
	}
	defer application.persistCache()

	ctx, cancel := signalContext(time.Duration(syncTimeout) * time.Second)
	defer cancel()

	var summary pipeline.Summary
	if len(args) == 1 {
		orderID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q: %w", args[0], err)
		}
		log.Info().Int64("order_id", orderID).Msg("Syncing single order")
		summary = application.runner.ProcessIDs(ctx, []int64{orderID})
	} else {
		log.Info().Msg("Syncing all processing orders")
		summary, err = application.runner.ProcessAll(ctx)
		if err != nil {
			return fmt.Errorf("fetching processing orders: %w", err)
		}
	}

	printSummary(summary)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d orders failed", summary.Failed, len(summary.Outcomes))
	}
	return nil
}

func printSummary(summary pipeline.Summary) {
	fmt.Printf("Processed %d orders: %d created, %d skipped, %d failed\n",
		len(summary.Outcomes), summary.Created, summary.Skipped, summary.Failed)

	for _, outcome := range summary.Outcomes {
		switch outcome.Status {
		case pipeline.StatusCreated:
			fmt.Printf("  order %d: invoice %d created\n", outcome.OrderID, outcome.InvoiceID)
		case pipeline.StatusSkipped:
			fmt.Printf("  order %d: skipped (%s)\n", outcome.OrderID, outcome.Reason)
		default:
			fmt.Printf("  order %d: FAILED at %s: %s\n", outcome.OrderID, outcome.LastState, outcome.Reason)
		}
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM or after
// the timeout, whichever comes first.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
