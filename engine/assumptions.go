package engine

import (
	"math"
	"sort"
)

// =============================================================================
// ASSET CLASSES
// =============================================================================

type AssetClass string

const (
	Equity         AssetClass = "equity"
	FixedIncome    AssetClass = "fixed_income"
	CashEquivalent AssetClass = "cash_equivalent"
)

// =============================================================================
// ASSUMPTIONS - Process-wide market constants, shared read-only by all goals
// =============================================================================

// Assumptions holds the market regime of a run. A value is shared by every
// goal evaluated in the run and must not be mutated after Validate.
type Assumptions struct {
	// Today is the valuation date every schedule and projection starts from.
	Today Date

	// DiscountRate values liabilities (present value, unmet liabilities).
	DiscountRate float64

	// DefaultInflationRate applies to liabilities without their own rate.
	DefaultInflationRate float64

	Compounding Compounding

	// ExpectedReturns maps each asset class to its annual expected return.
	ExpectedReturns map[AssetClass]float64
}

// Validate checks the assumptions once per run.
func (a Assumptions) Validate() error {
	if a.Today.IsZero() {
		return configErrorf("assumptions.today", "is required")
	}
	if !a.Compounding.Valid() {
		return configErrorf("assumptions.compounding", "unrecognized compounding %q", a.Compounding)
	}
	if !finite(a.DiscountRate) {
		return configErrorf("assumptions.discount_rate", "must be finite")
	}
	if !finite(a.DefaultInflationRate) || a.DefaultInflationRate < 0 {
		return configErrorf("assumptions.default_inflation_rate", "must be a finite rate >= 0")
	}
	if len(a.ExpectedReturns) == 0 {
		return configErrorf("assumptions.expected_returns", "at least one asset class is required")
	}
	for _, class := range a.AssetClasses() {
		if r := a.ExpectedReturns[class]; !finite(r) || r <= -1 {
			return configErrorf("assumptions.expected_returns."+string(class), "must be a finite rate > -100%%")
		}
	}
	return nil
}

// AssetClasses returns the configured classes in a stable order.
func (a Assumptions) AssetClasses() []AssetClass {
	classes := make([]AssetClass, 0, len(a.ExpectedReturns))
	for c := range a.ExpectedReturns {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// InflationFor returns the liability's own rate, or the default.
func (a Assumptions) InflationFor(rate *float64) float64 {
	if rate != nil {
		return *rate
	}
	return a.DefaultInflationRate
}

// DiscountFactor returns the factor that brings a cash flow `years` in the
// future back to present value at DiscountRate.
func (a Assumptions) DiscountFactor(years float64) float64 {
	return 1 / a.Compounding.GrowthFactor(a.DiscountRate, years)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
