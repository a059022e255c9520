package factory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/warp/goal-engine/engine"
)

// AssumptionsJSON accepts two shapes:
//
//	{"today": "2025-01-01", "discount_rate": 0.04, "default_inflation_rate": 0.03,
//	 "compounding": "annual", "expected_returns": {"equity": 0.07, "fixed_income": 0.04}}
//
//	{"market": {"cpi_inflation": 0.03, "equity_expected_return": 0.07,
//	 "fixed_income_expected_return": 0.04, "cash_equivalent_expected_return": 0.02,
//	 "discount_rate": 0.04}}
//
// When "market" is present every one of its fields is required.
type AssumptionsJSON struct {
	Today                string             `json:"today,omitempty"`
	DiscountRate         *float64           `json:"discount_rate,omitempty"`
	DefaultInflationRate *float64           `json:"default_inflation_rate,omitempty"`
	Compounding          string             `json:"compounding,omitempty"`
	ExpectedReturns      map[string]float64 `json:"expected_returns,omitempty"`
	Market               *MarketJSON        `json:"market,omitempty"`
}

// MarketJSON is the market regime section.
type MarketJSON struct {
	CPIInflation                 *float64 `json:"cpi_inflation"`
	EquityExpectedReturn         *float64 `json:"equity_expected_return"`
	FixedIncomeExpectedReturn    *float64 `json:"fixed_income_expected_return"`
	CashEquivalentExpectedReturn *float64 `json:"cash_equivalent_expected_return"`
	DiscountRate                 *float64 `json:"discount_rate"`
}

// ParseAssumptions parses a JSON string. today is used when the document has
// no "today" of its own.
func ParseAssumptions(jsonStr string, today engine.Date) (engine.Assumptions, error) {
	var aj AssumptionsJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return engine.Assumptions{}, fmt.Errorf("failed to parse assumptions JSON: %w", err)
	}
	return aj.ToAssumptions(today)
}

// ToAssumptions converts and validates.
func (aj AssumptionsJSON) ToAssumptions(today engine.Date) (engine.Assumptions, error) {
	a := engine.Assumptions{
		Today:       today,
		Compounding: engine.Compounding(aj.Compounding),
	}
	if a.Compounding == "" {
		a.Compounding = engine.CompoundAnnual
	}
	if aj.Today != "" {
		d, err := engine.ParseDate(aj.Today)
		if err != nil {
			return engine.Assumptions{}, &engine.ConfigError{Field: "assumptions.today", Reason: err.Error()}
		}
		a.Today = d
	}

	if aj.Market != nil {
		if err := aj.Market.apply(&a); err != nil {
			return engine.Assumptions{}, err
		}
	} else {
		if aj.DiscountRate == nil {
			return engine.Assumptions{}, &engine.ConfigError{Field: "assumptions.discount_rate", Reason: "is required"}
		}
		a.DiscountRate = *aj.DiscountRate
		if aj.DefaultInflationRate != nil {
			a.DefaultInflationRate = *aj.DefaultInflationRate
		}
		a.ExpectedReturns = make(map[engine.AssetClass]float64, len(aj.ExpectedReturns))
		for class, r := range aj.ExpectedReturns {
			a.ExpectedReturns[engine.AssetClass(class)] = r
		}
	}

	if err := a.Validate(); err != nil {
		return engine.Assumptions{}, err
	}
	return a, nil
}

func (m MarketJSON) apply(a *engine.Assumptions) error {
	fields := map[string]*float64{
		"cpi_inflation":                   m.CPIInflation,
		"equity_expected_return":          m.EquityExpectedReturn,
		"fixed_income_expected_return":    m.FixedIncomeExpectedReturn,
		"cash_equivalent_expected_return": m.CashEquivalentExpectedReturn,
		"discount_rate":                   m.DiscountRate,
	}
	var missing []string
	for name, v := range fields {
		if v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &engine.ConfigError{
			Field:  "assumptions.market",
			Reason: "missing fields: " + strings.Join(missing, ", "),
		}
	}

	a.DefaultInflationRate = *m.CPIInflation
	a.DiscountRate = *m.DiscountRate
	a.ExpectedReturns = map[engine.AssetClass]float64{
		engine.Equity:         *m.EquityExpectedReturn,
		engine.FixedIncome:    *m.FixedIncomeExpectedReturn,
		engine.CashEquivalent: *m.CashEquivalentExpectedReturn,
	}
	return nil
}
