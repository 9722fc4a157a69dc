package pipeline

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// RoundUpTo rounds amount up to the nearest multiple of granularity
// (0.05 or 0.10 in practice). The bias is deliberately upward so
// invoiced totals never undershoot cost; amounts already on a multiple
// are unchanged.
func RoundUpTo(amount, granularity decimal.Decimal) decimal.Decimal {
	return amount.Div(granularity).Ceil().Mul(granularity)
}

func formatOrderID(id int64) string {
	return strconv.FormatInt(id, 10)
}
