package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/goal-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var today = engine.MustParseDate("2025-01-01")

func date(s string) engine.Date { return engine.MustParseDate(s) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// flatMarket returns assumptions where every asset class earns rate, with no
// inflation and a discount rate equal to rate.
func flatMarket(rate float64) engine.Assumptions {
	return engine.Assumptions{
		Today:                today,
		DiscountRate:         rate,
		DefaultInflationRate: 0,
		Compounding:          engine.CompoundAnnual,
		ExpectedReturns: map[engine.AssetClass]float64{
			engine.Equity:         rate,
			engine.FixedIncome:    rate,
			engine.CashEquivalent: rate,
		},
	}
}

func market() engine.Assumptions {
	return engine.Assumptions{
		Today:                today,
		DiscountRate:         0.04,
		DefaultInflationRate: 0.03,
		Compounding:          engine.CompoundAnnual,
		ExpectedReturns: map[engine.AssetClass]float64{
			engine.Equity:         0.07,
			engine.FixedIncome:    0.04,
			engine.CashEquivalent: 0.02,
		},
	}
}

// collegeSavings is an underfunded goal: four annual tuition payments
// starting in 2035, with a monthly contribution already in place.
func collegeSavings() engine.Goal {
	return engine.Goal{
		Name:        "College Savings",
		AssetsToday: money(10000),
		Liabilities: []engine.Liability{
			engine.RecurringLiability{
				AmountToday:   money(25000),
				StartDate:     date("2035-09-01"),
				DurationYears: 4,
				Frequency:     engine.FreqAnnual,
			},
		},
		Contributions: []engine.Contribution{
			engine.RecurringContribution{Amount: money(200), Frequency: engine.FreqMonthly},
		},
	}
}

func requireConfigError(t *testing.T, err error, field string) *engine.ConfigError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, engine.ErrConfig)
	var cfg *engine.ConfigError
	require.ErrorAs(t, err, &cfg)
	if field != "" {
		require.Equal(t, field, cfg.Field)
	}
	return cfg
}

func inexact(d decimal.Decimal) float64 { return d.InexactFloat64() }
