package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Order is an order as returned by the order-source API. Only orders in
// the "processing" state are eligible for invoicing.
type Order struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Status      string `json:"status" validate:"required"`
	Currency    string `json:"currency"`
	DateCreated string `json:"date_created" validate:"required"`

	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`

	LineItems     []OrderLineItem `json:"line_items" validate:"required,min=1,dive"`
	ShippingLines []ShippingLine  `json:"shipping_lines" validate:"dive"`
}

// Address holds billing or shipping party details.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	Postcode  string `json:"postcode"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// OrderLineItem is a single purchased item on an order.
type OrderLineItem struct {
	SKU      string          `json:"sku" validate:"required"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
	TaxClass string          `json:"tax_class"`
}

// ShippingLine is a shipping charge on an order.
type ShippingLine struct {
	MethodTitle string          `json:"method_title"`
	Total       decimal.Decimal `json:"total"`
}

// BillingEmail returns the trimmed, lowercased billing email address.
func (o *Order) BillingEmail() string {
	return strings.ToLower(strings.TrimSpace(o.Billing.Email))
}

// DestinationCountry returns the ISO country code VAT is computed for:
// the shipping country when present, otherwise the billing country.
func (o *Order) DestinationCountry() string {
	if c := strings.TrimSpace(o.Shipping.Country); c != "" {
		return strings.ToUpper(c)
	}
	return strings.ToUpper(strings.TrimSpace(o.Billing.Country))
}

// CustomerName returns the billing contact's full name.
func (o *Order) CustomerName() string {
	return strings.TrimSpace(o.Billing.FirstName + " " + o.Billing.LastName)
}

// InvoiceDate returns the date portion of the order's creation timestamp.
func (o *Order) InvoiceDate() string {
	if i := strings.IndexByte(o.DateCreated, 'T'); i >= 0 {
		return o.DateCreated[:i]
	}
	return o.DateCreated
}

// ShippingTotal sums all shipping charges on the order.
func (o *Order) ShippingTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.ShippingLines {
		total = total.Add(line.Total)
	}
	return total
}
