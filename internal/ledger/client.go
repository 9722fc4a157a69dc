// Package ledger implements the client for the financial-management
// API: contact search/create, product search, invoice create/patch.
// Every remote call runs under the shared retry policy; contact and
// product lookups are cache-first.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"ordersync/internal/cache"
	"ordersync/internal/logger"
	"ordersync/internal/remote"
	"ordersync/pkg/models"
)

// Config holds the ledger API endpoints. BaseURL must already be scoped
// to the company.
type Config struct {
	BaseURL          string
	APIKey           string
	ContactsEndpoint string
	ProductsEndpoint string
	InvoicesEndpoint string
}

// Client talks to the ledger API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     remote.Policy
	cache      *cache.Cache
	log        zerolog.Logger
}

// New creates a ledger client. The cache holds contact and product
// identifiers across lookups; a cache hit skips the network entirely.
func New(cfg Config, policy remote.Policy, lookupCache *cache.Cache) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     policy,
		cache:      lookupCache,
		log:        logger.WithComponent("ledger"),
	}
}

type contactRecord struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"contact_person_email_address"`
}

// FindContactByEmail returns the ledger id of the contact with the given
// email, or remote.ErrNotFound. Cache-first.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (int64, error) {
	const op = "FindContactByEmail"
	email = strings.ToLower(strings.TrimSpace(email))

	if id, ok := c.cache.GetID(cache.KindContact, email); ok {
		c.log.Debug().Str("email", email).Int64("contact_id", id).Msg("Contact cache hit")
		return id, nil
	}

	params := url.Values{}
	params.Set("search[contact_person_email_address]", email)

	body, err := c.do(ctx, op, http.MethodGet, c.cfg.BaseURL+c.cfg.ContactsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Contacts []contactRecord `json:"contacts"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, &remote.ParseError{Op: op, Err: err}
	}

	for _, contact := range result.Contacts {
		if strings.EqualFold(contact.Email, email) {
			c.log.Info().
				Str("email", email).
				Str("name", contact.Name).
				Int64("contact_id", contact.ID).
				Msg("Contact found")
			c.cache.SetID(cache.KindContact, email, contact.ID)
			return contact.ID, nil
		}
	}

	return 0, fmt.Errorf("%w: contact %q", remote.ErrNotFound, email)
}

// CreateContact creates a contact from order billing data and returns
// its ledger id. The cache is populated keyed by email.
func (c *Client) CreateContact(ctx context.Context, contact *models.Contact) (int64, error) {
	const op = "CreateContact"

	body, err := c.do(ctx, op, http.MethodPost, c.cfg.BaseURL+c.cfg.ContactsEndpoint, map[string]any{
		"contact": contact,
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		Contact contactRecord `json:"contact"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, &remote.ParseError{Op: op, Err: err}
	}
	if result.Contact.ID == 0 {
		return 0, &remote.ParseError{Op: op, Err: fmt.Errorf("created contact has no id")}
	}

	c.log.Info().
		Str("email", contact.Email).
		Int64("contact_id", result.Contact.ID).
		Msg("Contact created")
	c.cache.SetID(cache.KindContact, strings.ToLower(strings.TrimSpace(contact.Email)), result.Contact.ID)

	return result.Contact.ID, nil
}

type productRecord struct {
	ID          int64 `json:"id"`
	InvoiceLine struct {
		ProductCode  string          `json:"product_code"`
		Description  string          `json:"description"`
		PricePerUnit decimal.Decimal `json:"price_per_unit"`
		VATRate      decimal.Decimal `json:"vat_rate"`
		VATTypeID    int64           `json:"vat_type_id"`
	} `json:"invoice_line"`
}

// FindProductBySKU returns the ledger product matching a SKU, or
// remote.ErrNotFound. Products are never created from here; catalog
// entries must pre-exist ledger-side. Cache-first; a hit from a prior
// run yields identifier and SKU only, line descriptions then fall back
// to the order's item name.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	const op = "FindProductBySKU"

	if id, ok := c.cache.GetID(cache.KindProduct, sku); ok {
		c.log.Debug().Str("sku", sku).Int64("product_id", id).Msg("Product cache hit")
		return &models.Product{ID: id, SKU: sku}, nil
	}

	params := url.Values{}
	params.Set("search[product_codes][]", sku)

	body, err := c.do(ctx, op, http.MethodGet, c.cfg.BaseURL+c.cfg.ProductsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Products []productRecord `json:"products"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &remote.ParseError{Op: op, Err: err}
	}

	for _, p := range result.Products {
		if p.InvoiceLine.ProductCode == sku {
			c.log.Info().
				Str("sku", sku).
				Int64("product_id", p.ID).
				Msg("Product found")
			c.cache.SetID(cache.KindProduct, sku, p.ID)
			return &models.Product{
				ID:           p.ID,
				SKU:          sku,
				Description:  p.InvoiceLine.Description,
				PricePerUnit: p.InvoiceLine.PricePerUnit,
				VATRate:      p.InvoiceLine.VATRate,
				VATTypeID:    p.InvoiceLine.VATTypeID,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: product %q", remote.ErrNotFound, sku)
}

// CreateInvoice creates a draft sales invoice and returns it with
// server-computed fields. Creation carries no idempotency key; rerunning
// an already-invoiced order creates a duplicate draft.
func (c *Client) CreateInvoice(ctx context.Context, draft *models.InvoiceDraft) (*models.Invoice, error) {
	const op = "CreateInvoice"

	body, err := c.do(ctx, op, http.MethodPost, c.cfg.BaseURL+c.cfg.InvoicesEndpoint, map[string]any{
		"sales_invoice": draft,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Invoice models.Invoice `json:"sales_invoice"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &remote.ParseError{Op: op, Err: err}
	}
	if result.Invoice.ID == 0 {
		return nil, &remote.ParseError{Op: op, Err: fmt.Errorf("created invoice has no id")}
	}

	c.log.Info().
		Int64("invoice_id", result.Invoice.ID).
		Int64("contact_id", draft.ContactID).
		Int("lines", len(draft.Lines)).
		Msg("Invoice created")

	return &result.Invoice, nil
}

// PatchInvoice pushes the rounded monetary totals the create endpoint
// cannot express. Idempotent ledger-side; retried independently of
// create.
func (c *Client) PatchInvoice(ctx context.Context, invoiceID int64, totals models.InvoiceTotals) error {
	const op = "PatchInvoice"

	_, err := c.do(ctx, op, http.MethodPatch, fmt.Sprintf("%s%s/%d", c.cfg.BaseURL, c.cfg.InvoicesEndpoint, invoiceID), map[string]any{
		"sales_invoice": totals,
	})
	if err != nil {
		return err
	}

	c.log.Info().
		Int64("invoice_id", invoiceID).
		Str("total_incl_vat", totals.TotalInclVAT.StringFixed(2)).
		Msg("Invoice totals patched")

	return nil
}

// do performs one retry-wrapped request and returns the response body.
func (c *Client) do(ctx context.Context, op, method, rawURL string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		if reqBody, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("%s: encoding request: %w", op, err)
		}
	}

	var respBody []byte
	err := c.policy.Do(ctx, op, func() error {
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return &remote.PermanentError{Body: err.Error()}
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Accept", "application/json")
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &remote.TransientError{Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &remote.TransientError{Err: err}
		}
		if err := remote.ClassifyStatus(resp.StatusCode, string(data)); err != nil {
			return err
		}
		respBody = data
		return nil
	})
	return respBody, err
}
