// Package pipeline turns one validated order into one ledger invoice:
// contact resolution, VAT application, product resolution, line
// assembly, invoice creation and the totals patch.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"ordersync/internal/logger"
	"ordersync/internal/mapping"
	"ordersync/internal/remote"
	"ordersync/pkg/models"
)

// State is where an order currently is in the pipeline. States are
// never re-entered; retries happen inside a state's network call.
type State string

const (
	StatePending           State = "pending"
	StateValidating        State = "validating"
	StateResolvingContact  State = "resolving_contact"
	StateResolvingVat      State = "resolving_vat"
	StateResolvingProducts State = "resolving_products"
	StateCreating          State = "creating"
	StatePatching          State = "patching"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Status classifies a per-order outcome.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the terminal result for one order. Err is set for failed
// outcomes; LastState records the state the failure occurred in.
// InvoiceID may be set on a failed outcome when create succeeded but the
// totals patch did not.
type Outcome struct {
	OrderID   int64
	Status    Status
	InvoiceID int64
	LastState State
	Reason    string
	Err       error
}

// Ledger is the subset of ledger operations the pipeline coordinates.
type Ledger interface {
	FindContactByEmail(ctx context.Context, email string) (int64, error)
	CreateContact(ctx context.Context, contact *models.Contact) (int64, error)
	FindProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	CreateInvoice(ctx context.Context, draft *models.InvoiceDraft) (*models.Invoice, error)
	PatchInvoice(ctx context.Context, invoiceID int64, totals models.InvoiceTotals) error
}

// Options tunes invoicing behavior.
type Options struct {
	// Granularity is the rounding step for invoice totals (0.05 or 0.10).
	// Totals are rounded up, never down, so invoiced amounts cannot
	// undershoot cost.
	Granularity decimal.Decimal

	// DueDays is added to the order date for the invoice due date.
	DueDays int

	// Templates maps a destination region (NL, EU, OTHER) to a ledger
	// invoice template id. Missing entries leave template selection to
	// the ledger.
	Templates map[string]int64
}

// Processor runs single orders through the pipeline.
type Processor struct {
	ledger   Ledger
	vat      *mapping.VATTable
	shipping *mapping.ShippingTable
	opts     Options
	validate *validator.Validate
	log      zerolog.Logger
}

// NewProcessor wires a processor from its collaborators.
func NewProcessor(ledger Ledger, vat *mapping.VATTable, shipping *mapping.ShippingTable, opts Options) *Processor {
	if opts.Granularity.Sign() <= 0 {
		opts.Granularity = decimal.RequireFromString("0.05")
	}
	if opts.DueDays == 0 {
		opts.DueDays = 30
	}
	return &Processor{
		ledger:   ledger,
		vat:      vat,
		shipping: shipping,
		opts:     opts,
		validate: validator.New(),
		log:      logger.WithComponent("pipeline"),
	}
}

// Process runs one order end to end. It never panics past this
// boundary; every failure is folded into the returned outcome.
func (p *Processor) Process(ctx context.Context, order *models.Order) Outcome {
	log := p.log.With().Int64("order_id", order.ID).Logger()

	// Validating
	if !strings.EqualFold(order.Status, "processing") {
		log.Info().Str("status", order.Status).Msg("Order not in processing state, skipping")
		return Outcome{OrderID: order.ID, Status: StatusSkipped, LastState: StateValidating,
			Reason: "status is " + order.Status}
	}
	orderDate, err := p.validateOrder(order)
	if err != nil {
		log.Error().Err(err).Msg("Order failed validation")
		return p.failed(order.ID, StateValidating, err)
	}

	// ResolvingContact
	contactID, err := p.resolveContact(ctx, order)
	if err != nil {
		log.Error().Err(err).Msg("Contact resolution failed")
		return p.failed(order.ID, StateResolvingContact, err)
	}

	// ResolvingVat
	country := order.DestinationCountry()
	vatInfo, err := p.vat.Resolve(country)
	if err != nil {
		log.Error().Err(err).Str("country", country).Msg("No VAT mapping for destination")
		return p.failed(order.ID, StateResolvingVat, err)
	}

	// ResolvingProducts: all-or-nothing, a single unresolved SKU fails
	// the whole order so partial invoices are never created.
	lines, err := p.buildLines(ctx, order, vatInfo)
	if err != nil {
		log.Error().Err(err).Msg("Product resolution failed")
		return p.failed(order.ID, StateResolvingProducts, err)
	}

	// Creating
	draft := p.buildDraft(order, contactID, country, orderDate, lines)
	invoice, err := p.ledger.CreateInvoice(ctx, draft)
	if err != nil {
		log.Error().Err(err).Msg("Invoice creation failed")
		return p.failed(order.ID, StateCreating, err)
	}

	// Patching
	totals := p.computeTotals(lines, vatInfo.Rate)
	if err := p.ledger.PatchInvoice(ctx, invoice.ID, totals); err != nil {
		log.Error().Err(err).Int64("invoice_id", invoice.ID).Msg("Totals patch failed")
		outcome := p.failed(order.ID, StatePatching, err)
		outcome.InvoiceID = invoice.ID
		return outcome
	}

	log.Info().
		Int64("invoice_id", invoice.ID).
		Int("lines", len(lines)).
		Str("total_incl_vat", totals.TotalInclVAT.StringFixed(2)).
		Msg("Invoice created and patched")

	return Outcome{OrderID: order.ID, Status: StatusCreated, InvoiceID: invoice.ID, LastState: StateDone}
}

func (p *Processor) failed(orderID int64, state State, err error) Outcome {
	return Outcome{
		OrderID:   orderID,
		Status:    StatusFailed,
		LastState: state,
		Reason:    err.Error(),
		Err:       &StepError{State: state, Err: err},
	}
}

// validateOrder enforces the order invariants before any network call:
// at least one line item, a non-empty billing email, a resolvable
// destination country, a parseable order date.
func (p *Processor) validateOrder(order *models.Order) (time.Time, error) {
	if err := p.validate.Struct(order); err != nil {
		return time.Time{}, &ValidationError{Field: "order", Message: err.Error()}
	}
	if err := p.validate.Var(order.BillingEmail(), "required,email"); err != nil {
		return time.Time{}, &ValidationError{Field: "billing.email", Message: "missing or malformed email"}
	}
	if err := p.validate.Var(order.DestinationCountry(), "required,len=2,alpha"); err != nil {
		return time.Time{}, &ValidationError{Field: "country", Message: "missing or malformed country code"}
	}
	orderDate, err := time.Parse("2006-01-02", order.InvoiceDate())
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date_created", Message: "unparseable order date"}
	}
	return orderDate, nil
}

// resolveContact looks the billing contact up by email and creates it
// from billing data when absent. Contacts are cheap to create, unlike
// products.
func (p *Processor) resolveContact(ctx context.Context, order *models.Order) (int64, error) {
	email := order.BillingEmail()

	contactID, err := p.ledger.FindContactByEmail(ctx, email)
	if err == nil {
		return contactID, nil
	}
	if !errors.Is(err, remote.ErrNotFound) {
		return 0, err
	}

	p.log.Info().
		Int64("order_id", order.ID).
		Str("email", email).
		Msg("No contact for email, creating")

	return p.ledger.CreateContact(ctx, contactFromBilling(order))
}

func contactFromBilling(order *models.Order) *models.Contact {
	billing := order.Billing

	address := billing.Address1
	if billing.Address2 != "" {
		address = billing.Address1 + ", " + billing.Address2
	}
	country := strings.ToUpper(strings.TrimSpace(billing.Country))
	if country == "" {
		country = "NL"
	}

	return &models.Contact{
		IsIndividual:      billing.Company == "",
		CompanyName:       billing.Company,
		ContactPersonName: order.CustomerName(),
		Email:             order.BillingEmail(),
		Address:           address,
		Zipcode:           billing.Postcode,
		City:              billing.City,
		CountryCode:       country,
		Phone:             billing.Phone,
	}
}

// buildLines resolves every order item plus the shipping charge into
// invoice lines tagged with the destination's VAT treatment.
func (p *Processor) buildLines(ctx context.Context, order *models.Order, vatInfo mapping.VATInfo) ([]models.InvoiceLine, error) {
	lines := make([]models.InvoiceLine, 0, len(order.LineItems)+1)

	for _, item := range order.LineItems {
		product, err := p.resolveProduct(ctx, item.SKU)
		if err != nil {
			return nil, err
		}

		description := product.Description
		if description == "" {
			description = item.Name
		}

		lines = append(lines, models.InvoiceLine{
			Description:  description,
			Quantity:     item.Quantity,
			PricePerUnit: item.Price,
			VATRate:      vatInfo.Rate,
			VATTypeID:    vatInfo.TypeID,
			ProductID:    product.ID,
		})
	}

	shippingLines, err := p.buildShippingLines(ctx, order, vatInfo)
	if err != nil {
		return nil, err
	}

	return append(lines, shippingLines...), nil
}

// resolveProduct looks up a SKU, retrying once with the variant suffix
// (everything after the last dash) stripped. Variant SKUs share the
// parent's catalog entry ledger-side.
func (p *Processor) resolveProduct(ctx context.Context, sku string) (*models.Product, error) {
	product, err := p.ledger.FindProductBySKU(ctx, sku)
	if err == nil {
		return product, nil
	}

	if errors.Is(err, remote.ErrNotFound) {
		if i := strings.LastIndex(sku, "-"); i > 0 {
			base := sku[:i]
			p.log.Info().
				Str("sku", sku).
				Str("base_sku", base).
				Msg("SKU not in catalog, retrying with variant suffix stripped")
			return p.ledger.FindProductBySKU(ctx, base)
		}
	}

	return nil, err
}

// buildShippingLines maps the order's shipping charges to ledger lines.
// Orders with zero shipping charge skip shipping resolution entirely;
// an unmapped method on a charged order fails the order.
func (p *Processor) buildShippingLines(ctx context.Context, order *models.Order, vatInfo mapping.VATInfo) ([]models.InvoiceLine, error) {
	var lines []models.InvoiceLine

	for _, shippingLine := range order.ShippingLines {
		if shippingLine.Total.Sign() == 0 {
			continue
		}

		resolved, err := p.shipping.Resolve(shippingLine.MethodTitle, shippingLine.Total)
		if err != nil {
			return nil, err
		}
		if resolved.PriceMismatch {
			p.log.Warn().
				Int64("order_id", order.ID).
				Str("method", resolved.Description).
				Str("charged", resolved.Price.StringFixed(2)).
				Str("expected", resolved.ExpectedPrice.StringFixed(2)).
				Msg("Shipping charge differs from mapping table")
		}

		product, err := p.ledger.FindProductBySKU(ctx, resolved.SKU)
		if err != nil {
			return nil, err
		}

		description := product.Description
		if description == "" {
			description = resolved.Description
		}

		lines = append(lines, models.InvoiceLine{
			Description:  description,
			Quantity:     1,
			PricePerUnit: resolved.Price,
			VATRate:      vatInfo.Rate,
			VATTypeID:    vatInfo.TypeID,
			ProductID:    product.ID,
		})
	}

	return lines, nil
}

func (p *Processor) buildDraft(order *models.Order, contactID int64, country string, orderDate time.Time, lines []models.InvoiceLine) *models.InvoiceDraft {
	return &models.InvoiceDraft{
		ContactID:        contactID,
		TemplateID:       p.opts.Templates[mapping.TemplateRegion(country)],
		PaymentReference: formatOrderID(order.ID),
		Description:      formatOrderID(order.ID),
		Date:             orderDate.Format("2006-01-02"),
		DueDate:          orderDate.AddDate(0, 0, p.opts.DueDays).Format("2006-01-02"),
		Lines:            lines,
	}
}

// computeTotals sums the lines ex VAT, applies the destination rate and
// rounds the gross total up to the configured granularity.
func (p *Processor) computeTotals(lines []models.InvoiceLine, vatRate decimal.Decimal) models.InvoiceTotals {
	net := decimal.Zero
	for _, line := range lines {
		net = net.Add(line.PricePerUnit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	gross := net.Mul(decimal.NewFromInt(1).Add(vatRate))

	return models.InvoiceTotals{
		TotalExclVAT: net,
		TotalInclVAT: RoundUpTo(gross, p.opts.Granularity),
	}
}
