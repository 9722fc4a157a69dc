// Package mapping loads the two static lookup tables the sync depends
// on: country to VAT treatment, and shipping method to ledger SKU. Both
// are loaded once at startup; a malformed row fails the whole run.
package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupportedCountry is returned when an order's destination
	// country has no VAT mapping. Fatal for that order; VAT is never
	// silently defaulted.
	ErrUnsupportedCountry = errors.New("no VAT mapping for country")

	// ErrUnmappedShippingMethod is returned when an order's shipping
	// method has no entry in the shipping table.
	ErrUnmappedShippingMethod = errors.New("no mapping for shipping method")
)

// VATInfo is the ledger VAT treatment for one destination country.
type VATInfo struct {
	TypeID int64
	Rate   decimal.Decimal
}

// VATTable maps upper-case ISO country codes to VAT treatment. Immutable
// after load; exactly one entry per country.
type VATTable struct {
	entries map[string]VATInfo
}

// LoadVATTable reads a CSV with columns country_code,vat_type_id,vat_rate.
func LoadVATTable(path string) (*VATTable, error) {
	const op = "LoadVATTable"

	rows, err := readCSV(path, []string{"country_code", "vat_type_id", "vat_rate"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table := &VATTable{entries: make(map[string]VATInfo, len(rows))}
	for i, row := range rows {
		rowNum := i + 2 // header is row 1

		code := strings.ToUpper(strings.TrimSpace(row[0]))
		if len(code) != 2 {
			return nil, fmt.Errorf("%s: invalid country code %q in row %d", op, row[0], rowNum)
		}
		if _, exists := table.entries[code]; exists {
			return nil, fmt.Errorf("%s: duplicate country code %q in row %d", op, code, rowNum)
		}

		typeID, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid vat_type_id %q in row %d: %w", op, row[1], rowNum, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid vat_rate %q in row %d: %w", op, row[2], rowNum, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%s: vat_rate %s out of range in row %d", op, rate, rowNum)
		}

		table.entries[code] = VATInfo{TypeID: typeID, Rate: rate}
	}

	return table, nil
}

// Resolve returns the VAT treatment for a destination country code.
// Lookup is case-insensitive; a miss returns ErrUnsupportedCountry.
func (t *VATTable) Resolve(countryCode string) (VATInfo, error) {
	info, ok := t.entries[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return VATInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedCountry, countryCode)
	}
	return info, nil
}

// Len reports the number of mapped countries.
func (t *VATTable) Len() int {
	return len(t.entries)
}

// readCSV reads all data rows of a CSV file after verifying the header.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	for i, want := range header {
		if !strings.EqualFold(strings.TrimSpace(records[0][i]), want) {
			return nil, fmt.Errorf("%s: expected header column %q, got %q", path, want, records[0][i])
		}
	}

	return records[1:], nil
}
