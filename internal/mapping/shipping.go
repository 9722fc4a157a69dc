package mapping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ShippingEntry maps one shipping method name to a ledger SKU and the
// price the method is expected to be charged at.
type ShippingEntry struct {
	Method        string
	ExpectedPrice decimal.Decimal
	SKU           string
}

// ResolvedShipping is the outcome of a shipping method lookup. The
// invoice line always carries the price actually charged on the order;
// PriceMismatch flags a divergence from the table for logging.
type ResolvedShipping struct {
	SKU           string
	Description   string
	Price         decimal.Decimal
	ExpectedPrice decimal.Decimal
	PriceMismatch bool
}

// ShippingTable maps shipping method names (case-sensitive, as emitted
// by the order source) to ledger SKUs. Immutable after load.
type ShippingTable struct {
	entries map[string]ShippingEntry
}

// LoadShippingTable reads a CSV with columns shipping_method,price,sku.
func LoadShippingTable(path string) (*ShippingTable, error) {
	const op = "LoadShippingTable"

	rows, err := readCSV(path, []string{"shipping_method", "price", "sku"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table := &ShippingTable{entries: make(map[string]ShippingEntry, len(rows))}
	for i, row := range rows {
		rowNum := i + 2

		method := strings.TrimSpace(row[0])
		if method == "" {
			return nil, fmt.Errorf("%s: empty shipping_method in row %d", op, rowNum)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid price %q in row %d: %w", op, row[1], rowNum, err)
		}
		sku := strings.TrimSpace(row[2])
		if sku == "" {
			return nil, fmt.Errorf("%s: empty sku in row %d", op, rowNum)
		}

		table.entries[method] = ShippingEntry{Method: method, ExpectedPrice: price, SKU: sku}
	}

	return table, nil
}

// Resolve matches a shipping method name against the table. A price
// differing from the table's expected price is flagged, not fatal; the
// returned line keeps the charged price. An unknown method returns
// ErrUnmappedShippingMethod.
func (t *ShippingTable) Resolve(methodName string, chargedPrice decimal.Decimal) (ResolvedShipping, error) {
	entry, ok := t.entries[methodName]
	if !ok {
		return ResolvedShipping{}, fmt.Errorf("%w: %q", ErrUnmappedShippingMethod, methodName)
	}

	return ResolvedShipping{
		SKU:           entry.SKU,
		Description:   methodName,
		Price:         chargedPrice,
		ExpectedPrice: entry.ExpectedPrice,
		PriceMismatch: !chargedPrice.Equal(entry.ExpectedPrice),
	}, nil
}

// Len reports the number of mapped shipping methods.
func (t *ShippingTable) Len() int {
	return len(t.entries)
}
