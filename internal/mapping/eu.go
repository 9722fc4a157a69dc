package mapping

import "strings"

// euCountries is the set of EU member states, used to pick the invoice
// template region for a destination.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "FR": {}, "GR": {}, "HR": {}, "HU": {},
	"IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// Template regions for invoice layout selection.
const (
	RegionNL    = "NL"
	RegionEU    = "EU"
	RegionOther = "OTHER"
)

// IsEUCountry reports whether code is an EU member state.
func IsEUCountry(code string) bool {
	_, ok := euCountries[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// TemplateRegion classifies a destination country for invoice template
// selection: domestic (NL), intra-EU, or everything else.
func TemplateRegion(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	switch {
	case c == "NL":
		return RegionNL
	case IsEUCountry(c):
		return RegionEU
	default:
		return RegionOther
	}
}
