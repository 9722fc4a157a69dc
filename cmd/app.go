package cmd

import (
	"fmt"

	"ordersync/internal/cache"
	"ordersync/internal/config"
	"ordersync/internal/ledger"
	"ordersync/internal/mapping"
	"ordersync/internal/pipeline"
	"ordersync/internal/remote"
	"ordersync/internal/source"
)

// app bundles the wired components a command needs to process orders.
type app struct {
	runner    *pipeline.Runner
	cache     *cache.Cache
	cacheFile string
}

// buildApp wires the order source, ledger client, mapping tables and
// pipeline from the configuration. When noCache is true the lookup
// cache is kept in memory only and never persisted.
func buildApp(cfg *config.Config, cacheFile string, noCache bool) (*app, error) {
	vatTable, err := mapping.LoadVATTable(cfg.VATMappingFile)
	if err != nil {
		return nil, fmt.Errorf("loading VAT mapping: %w", err)
	}
	shippingTable, err := mapping.LoadShippingTable(cfg.ShippingMappingFile)
	if err != nil {
		return nil, fmt.Errorf("loading shipping mapping: %w", err)
	}

	lookupCache := cache.New(cfg.CacheTTL)
	if noCache {
		cacheFile = ""
	} else if cacheFile == "" {
		cacheFile = cfg.CacheFile
	}
	lookupCache.Load(cacheFile)

	policy := remote.DefaultPolicy()

	orderSource := source.New(
		cfg.OrderSourceBaseURL,
		cfg.OrderSourceUsername,
		cfg.OrderSourcePassword,
		policy,
	)

	ledgerClient := ledger.New(ledger.Config{
		BaseURL:          cfg.LedgerURL(),
		APIKey:           cfg.LedgerAPIKey,
		ContactsEndpoint: cfg.LedgerContactsEndpoint,
		ProductsEndpoint: cfg.LedgerProductsEndpoint,
		InvoicesEndpoint: cfg.LedgerInvoicesEndpoint,
	}, policy, lookupCache)

	processor := pipeline.NewProcessor(ledgerClient, vatTable, shippingTable, pipeline.Options{
		Granularity: cfg.RoundingGranularity,
		DueDays:     cfg.InvoiceDueDays,
		Templates: map[string]int64{
			mapping.RegionNL:    cfg.LedgerTemplateNL,
			mapping.RegionEU:    cfg.LedgerTemplateEU,
			mapping.RegionOther: cfg.LedgerTemplateOther,
		},
	})

	return &app{
		runner:    pipeline.NewRunner(orderSource, processor),
		cache:     lookupCache,
		cacheFile: cacheFile,
	}, nil
}

// persistCache writes the lookup cache back to disk, if persistence
// is enabled.
func (a *app) persistCache() {
	_ = a.cache.Save(a.cacheFile)
}
