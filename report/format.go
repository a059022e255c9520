package report

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency code is configured.
const DefaultCurrency = money.USD

// Money formats an amount in the currency's display convention, rounded to the
// currency's minor unit: $1,234.56 and -$1,234.56 for USD.
// Unknown codes fall back to DefaultCurrency.
func Money(amount decimal.Decimal, code string) string {
	cur := currency(code)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func currency(code string) money.Currency {
	if code == "" || money.GetCurrency(code) == nil {
		code = DefaultCurrency
	}
	// the constructor is the only way to get a never nil currency
	return *money.New(0, code).Currency()
}

// Percent formats a weight in [0,1] as a percentage with two decimals: 0.1234 -> "12.34%".
func Percent(w float64) string {
	return fmt.Sprintf("%.2f%%", w*100)
}

// Ratio formats a decimal ratio as a percentage.
func Ratio(r decimal.Decimal) string {
	return Percent(r.InexactFloat64())
}
