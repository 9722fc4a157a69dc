package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ORDER_SOURCE_BASE_URL", "https://shop.example.com/wp-json/wc/v3")
	t.Setenv("ORDER_SOURCE_USERNAME", "ck_user")
	t.Setenv("ORDER_SOURCE_PASSWORD", "cs_secret")
	t.Setenv("LEDGER_BASE_URL", "https://ledger.example.com/api/v1")
	t.Setenv("LEDGER_COMPANY_ID", "12345")
	t.Setenv("LEDGER_API_KEY", "token")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/contacts", cfg.LedgerContactsEndpoint)
	assert.Equal(t, "/products", cfg.LedgerProductsEndpoint)
	assert.Equal(t, "/sales_invoices", cfg.LedgerInvoicesEndpoint)
	assert.Equal(t, "vat_mapping.csv", cfg.VATMappingFile)
	assert.Equal(t, "shipping_mapping.csv", cfg.ShippingMappingFile)
	assert.Equal(t, ".ordersync-cache", cfg.CacheFile)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.RoundingGranularity.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, 30, cfg.InvoiceDueDays)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("ROUNDING_GRANULARITY", "0.10")
	t.Setenv("INVOICE_DUE_DAYS", "14")
	t.Setenv("LEDGER_TEMPLATE_NL", "9001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.RoundingGranularity.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 14, cfg.InvoiceDueDays)
	assert.Equal(t, int64(9001), cfg.LedgerTemplateNL)
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{
		"ORDER_SOURCE_BASE_URL",
		"ORDER_SOURCE_USERNAME",
		"ORDER_SOURCE_PASSWORD",
		"LEDGER_BASE_URL",
		"LEDGER_COMPANY_ID",
		"LEDGER_API_KEY",
	} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadBadValues(t *testing.T) {
	for name, env := range map[string][2]string{
		"bad ttl":         {"CACHE_TTL", "soon"},
		"bad granularity": {"ROUNDING_GRANULARITY", "five cents"},
		"zero gran":       {"ROUNDING_GRANULARITY", "0"},
		"bad due days":    {"INVOICE_DUE_DAYS", "a month"},
		"bad template":    {"LEDGER_TEMPLATE_EU", "two"},
	} {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(env[0], env[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLedgerURL(t *testing.T) {
	cfg := &Config{LedgerBaseURL: "https://ledger.example.com/api/v1/", LedgerCompanyID: "987"}
	assert.Equal(t, "https://ledger.example.com/api/v1/987", cfg.LedgerURL())
}
