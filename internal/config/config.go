package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"ordersync/internal/logger"
)

type Config struct {
	// Order source API (basic auth)
	OrderSourceBaseURL  string
	OrderSourceUsername string
	OrderSourcePassword string

	// Ledger API (bearer token, URLs scoped to a company)
	LedgerBaseURL          string
	LedgerCompanyID        string
	LedgerAPIKey           string
	LedgerContactsEndpoint string
	LedgerProductsEndpoint string
	LedgerInvoicesEndpoint string

	// Invoice template ids per destination region (0 = let the ledger pick)
	LedgerTemplateNL    int64
	LedgerTemplateEU    int64
	LedgerTemplateOther int64

	// Mapping tables
	VATMappingFile      string
	ShippingMappingFile string

	// Lookup cache
	CacheFile string
	CacheTTL  time.Duration

	// Invoicing behavior
	RoundingGranularity decimal.Decimal
	InvoiceDueDays      int

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OrderSourceBaseURL:     getEnv("ORDER_SOURCE_BASE_URL", ""),
		OrderSourceUsername:    getEnv("ORDER_SOURCE_USERNAME", ""),
		OrderSourcePassword:    getEnv("ORDER_SOURCE_PASSWORD", ""),
		LedgerBaseURL:          getEnv("LEDGER_BASE_URL", ""),
		LedgerCompanyID:        getEnv("LEDGER_COMPANY_ID", ""),
		LedgerAPIKey:           getEnv("LEDGER_API_KEY", ""),
		LedgerContactsEndpoint: getEnv("LEDGER_CONTACTS_ENDPOINT", "/contacts"),
		LedgerProductsEndpoint: getEnv("LEDGER_PRODUCTS_ENDPOINT", "/products"),
		LedgerInvoicesEndpoint: getEnv("LEDGER_INVOICES_ENDPOINT", "/sales_invoices"),
		VATMappingFile:         getEnv("VAT_MAPPING_FILE", "vat_mapping.csv"),
		ShippingMappingFile:    getEnv("SHIPPING_MAPPING_FILE", "shipping_mapping.csv"),
		CacheFile:              getEnv("CACHE_FILE", ".ordersync-cache"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:          getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:              getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	if config.RoundingGranularity, err = decimal.NewFromString(getEnv("ROUNDING_GRANULARITY", "0.05")); err != nil {
		return nil, fmt.Errorf("invalid ROUNDING_GRANULARITY: %w", err)
	}
	if config.InvoiceDueDays, err = getEnvInt("INVOICE_DUE_DAYS", 30); err != nil {
		return nil, err
	}
	if config.LedgerTemplateNL, err = getEnvInt64("LEDGER_TEMPLATE_NL", 0); err != nil {
		return nil, err
	}
	if config.LedgerTemplateEU, err = getEnvInt64("LEDGER_TEMPLATE_EU", 0); err != nil {
		return nil, err
	}
	if config.LedgerTemplateOther, err = getEnvInt64("LEDGER_TEMPLATE_OTHER", 0); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OrderSourceBaseURL == "" {
		return fmt.Errorf("ORDER_SOURCE_BASE_URL is required")
	}
	if c.OrderSourceUsername == "" {
		return fmt.Errorf("ORDER_SOURCE_USERNAME is required")
	}
	if c.OrderSourcePassword == "" {
		return fmt.Errorf("ORDER_SOURCE_PASSWORD is required")
	}
	if c.LedgerBaseURL == "" {
		return fmt.Errorf("LEDGER_BASE_URL is required")
	}
	if c.LedgerCompanyID == "" {
		return fmt.Errorf("LEDGER_COMPANY_ID is required")
	}
	if c.LedgerAPIKey == "" {
		return fmt.Errorf("LEDGER_API_KEY is required")
	}
	if c.RoundingGranularity.Sign() <= 0 {
		return fmt.Errorf("ROUNDING_GRANULARITY must be positive")
	}
	return nil
}

// LedgerURL returns the company-scoped ledger base URL.
func (c *Config) LedgerURL() string {
	return strings.TrimSuffix(c.LedgerBaseURL, "/") + "/" + c.LedgerCompanyID
}

// LoggerConfig returns a logger configuration from the main config
func (c *Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
