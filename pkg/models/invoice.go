package models

import "github.com/shopspring/decimal"

// Contact is a customer record in the ledger system, keyed by email
// (case-insensitive uniqueness is assumed ledger-side).
type Contact struct {
	ID                int64  `json:"id,omitempty"`
	IsIndividual      bool   `json:"is_individual"`
	IsSupplier        bool   `json:"is_supplier"`
	CompanyName       string `json:"company_name,omitempty"`
	ContactPersonName string `json:"contact_person_name"`
	Email             string `json:"contact_person_email_address"`
	Address           string `json:"address,omitempty"`
	Zipcode           string `json:"zipcode,omitempty"`
	City              string `json:"city,omitempty"`
	CountryCode       string `json:"country_code,omitempty"`
	Phone             string `json:"phone,omitempty"`
}

// Product is a catalog entry in the ledger system, keyed by SKU. Products
// are never created by this tool; they must pre-exist in the ledger.
type Product struct {
	ID           int64
	SKU          string
	Description  string
	PricePerUnit decimal.Decimal
	VATRate      decimal.Decimal
	VATTypeID    int64
}

// InvoiceLine is one line on an invoice draft.
type InvoiceLine struct {
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	VATTypeID    int64           `json:"vat_type_id"`
	ProductID    int64           `json:"product_id"`
}

// InvoiceDraft is the payload for invoice creation. The ledger's create
// endpoint cannot set rounded totals directly; those go in a follow-up
// patch (see InvoiceTotals).
type InvoiceDraft struct {
	ContactID        int64         `json:"contact_id"`
	TemplateID       int64         `json:"template_id,omitempty"`
	PaymentReference string        `json:"payment_reference"`
	Description      string        `json:"description"`
	Date             string        `json:"date"`
	DueDate          string        `json:"due_date"`
	Lines            []InvoiceLine `json:"invoice_lines"`
}

// Invoice is a created invoice as returned by the ledger.
type Invoice struct {
	ID            int64           `json:"id"`
	ContactID     int64           `json:"contact_id"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	TotalExclVAT  decimal.Decimal `json:"total_price_excl_tax"`
	TotalInclVAT  decimal.Decimal `json:"total_price_incl_tax"`
	Lines         []InvoiceLine   `json:"invoice_lines,omitempty"`
}

// InvoiceTotals carries the rounded monetary totals pushed via patch
// after creation. Patching the same totals twice is a no-op ledger-side.
type InvoiceTotals struct {
	TotalExclVAT decimal.Decimal `json:"total_price_excl_tax"`
	TotalInclVAT decimal.Decimal `json:"total_price_incl_tax"`
}
