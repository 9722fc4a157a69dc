package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"ordersync/internal/config"
	"ordersync/internal/logger"
	"ordersync/internal/relay"
)

var (
	servePort      int
	serveCacheFile string
	serveNoCache   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the order relay server",
	Long: `Serve starts a small HTTP server for the order-selection front
end. It accepts POST /process_orders with a JSON body of order ids and
runs each through the invoice pipeline, returning per-order results.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 1234, "port to listen on")
	serveCmd.Flags().StringVar(&serveCacheFile, "cache-file", "", "path for the persisted lookup cache (default from CACHE_FILE)")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "keep the lookup cache in memory only")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	application, err := buildApp(cfg, serveCacheFile, serveNoCache)
	if err != nil {
		return err
	}
	defer application.persistCache()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Int("port", servePort).Msg("Starting relay server")
	return relay.New(application.runner).Run(ctx, fmt.Sprintf(":%d", servePort))
}
