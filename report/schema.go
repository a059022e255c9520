/*
Package report maps goal results to display rows.

PURPOSE:
  The engine produces GoalResults keyed by field; this package owns the
  human-readable labels, money and percent formatting, and the terminal table.

COLUMNS:
  ResultSchema is the default table. DetailSchema appends maturity, present
  value of liabilities and funding ratio.

SEE ALSO:
  - engine/result.go: GoalResult
  - cli/run.go: prints the rendered table
*/
package report

import (
	"strings"

	"github.com/warp/goal-engine/engine"
)

// Column keys.
const (
	KeyName                  = "name"
	KeyAssetsToday           = "assets_today"
	KeySurplusAtMaturity     = "surplus_at_maturity"
	KeyEquityAllocation      = "equity_allocation"
	KeyFixedIncomeAllocation = "fixed_income_allocation"
	KeyNetContributionToday  = "net_contribution_today"
	KeyMonthlyContribution   = "monthly_contribution"
	KeyMaturityDate          = "maturity_date"
	KeyLiabilitiesPV         = "liabilities_present_value"
	KeyFundingRatio          = "funding_ratio"
)

type Kind int

const (
	KindText Kind = iota
	KindMoney
	KindPercent
)

// Column is one displayed result field.
type Column struct {
	Key   string
	Label string
	Kind  Kind
}

// ResultSchema lists the default columns in display order.
var ResultSchema = []Column{
	{KeyName, "Name", KindText},
	{KeyAssetsToday, "Portfolio Value (Today)", KindMoney},
	{KeySurplusAtMaturity, "Projected Surplus / Shortfall (At Maturity)", KindMoney},
	{KeyEquityAllocation, "Equity Allocation (%)", KindPercent},
	{KeyFixedIncomeAllocation, "Fixed Income Allocation (%)", KindPercent},
	{KeyNetContributionToday, "Required Net Contribution (Today)", KindMoney},
	{KeyMonthlyContribution, "Required Monthly Contribution", KindMoney},
}

// DetailSchema is ResultSchema plus the funding detail columns.
var DetailSchema = append(append([]Column{}, ResultSchema...),
	Column{KeyMaturityDate, "Maturity Date", KindText},
	Column{KeyLiabilitiesPV, "Liabilities PV (Today)", KindMoney},
	Column{KeyFundingRatio, "Funding Ratio (%)", KindPercent},
)

// Label returns the display label for key, or key itself when unknown.
func Label(key string) string {
	for _, c := range DetailSchema {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

// Headers returns the labels of columns. The recurring contribution label
// names the solved frequency when it is not monthly.
func Headers(columns []Column, freq engine.Frequency) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
		if c.Key == KeyMonthlyContribution && freq != "" && freq != engine.FreqMonthly {
			out[i] = "Required " + titleCase(string(freq)) + " Contribution"
		}
	}
	return out
}

// Value returns the raw value of a column for r: string, decimal.Decimal or float64.
func Value(r *engine.GoalResult, key string) any {
	switch key {
	case KeyName:
		return r.Name
	case KeyAssetsToday:
		return r.AssetsToday
	case KeySurplusAtMaturity:
		return r.SurplusAtMaturity
	case KeyEquityAllocation:
		return r.AllocationSnapshot[engine.Equity]
	case KeyFixedIncomeAllocation:
		return r.AllocationSnapshot[engine.FixedIncome]
	case KeyNetContributionToday:
		return r.RequiredLumpSumContribution
	case KeyMonthlyContribution:
		return r.RequiredRecurringContribution
	case KeyMaturityDate:
		return r.MaturityDate.String()
	case KeyLiabilitiesPV:
		return r.LiabilitiesPresentValue
	case KeyFundingRatio:
		return r.FundingRatio
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
