package engine_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/goal-engine/engine"
)

// =============================================================================
// RANDOM GOALS
// =============================================================================

var frequencies = []engine.Frequency{engine.FreqMonthly, engine.FreqQuarterly, engine.FreqAnnual}

func randomAmount(rng *rand.Rand, lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(lo + rng.Float64()*(hi-lo)).Round(2)
}

// randomGoal returns a goal with one liability one to twenty years out and one
// recurring contribution starting today.
func randomGoal(rng *rand.Rand) engine.Goal {
	due := today.AddMonths(12 + rng.Intn(20*12))

	var liability engine.Liability
	if rng.Intn(2) == 0 {
		liability = engine.LumpSumLiability{AmountToday: randomAmount(rng, 1000, 100000), Date: due}
	} else {
		liability = engine.RecurringLiability{
			AmountToday:   randomAmount(rng, 500, 30000),
			StartDate:     due,
			DurationYears: 1 + rng.Intn(5),
			Frequency:     frequencies[rng.Intn(len(frequencies))],
		}
	}

	return engine.Goal{
		Name:        "random",
		AssetsToday: randomAmount(rng, 0, 20000),
		Liabilities: []engine.Liability{liability},
		Contributions: []engine.Contribution{
			engine.RecurringContribution{
				Amount:    randomAmount(rng, 0, 500),
				Frequency: frequencies[rng.Intn(len(frequencies))],
			},
		},
	}
}

func randomStrategy(t *testing.T, rng *rand.Rand) engine.AllocationStrategy {
	switch rng.Intn(3) {
	case 0:
		return engine.EquityOnly()
	case 1:
		return engine.DefaultGlidePath()
	default:
		fixed, err := engine.NewFixedAllocation("random", randomMix(rng))
		require.NoError(t, err)
		return fixed
	}
}

// =============================================================================
// PROPERTY TESTS
// =============================================================================

func TestSolve_SubstitutionZeroesSurplusForRandomGoals(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	solver := engine.NewFundingSolver()
	a := market()

	for i := 0; i < 60; i++ {
		g := randomGoal(rng)
		strategy := randomStrategy(t, rng)

		sol, err := solver.Solve(g, a, strategy)
		require.NoError(t, err, "iteration %d", i)

		// lump sum added to today's assets
		funded := g
		funded.AssetsToday = g.AssetsToday.Add(sol.RequiredLumpSum)
		surplus := surplusOf(t, funded, a, strategy)
		if sol.Baseline.SurplusAtMaturity.IsNegative() {
			assert.InDelta(t, 0, inexact(surplus), 1e-6, "iteration %d: lump sum %s", i, sol.RequiredLumpSum)
		} else {
			assert.True(t, sol.RequiredLumpSum.IsZero(), "iteration %d", i)
			assert.False(t, surplus.IsNegative(), "iteration %d", i)
		}

		// recurring amount added on top of the existing contribution
		if sol.RequiredRecurring.IsPositive() {
			added := g
			added.Contributions = append([]engine.Contribution{}, g.Contributions...)
			added.Contributions = append(added.Contributions,
				engine.RecurringContribution{Amount: sol.RequiredRecurring, Frequency: sol.RecurringFrequency})
			assert.InDelta(t, 0, inexact(surplusOf(t, added, a, strategy)), 1e-6, "iteration %d: recurring %s", i, sol.RequiredRecurring)
		}
	}
}

func TestProject_SurplusIsMonotoneInAmounts(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := market()

	for i := 0; i < 60; i++ {
		g := randomGoal(rng)
		strategy := randomStrategy(t, rng)
		base := surplusOf(t, g, a, strategy)
		bump := randomAmount(rng, 1, 100)

		// more contribution, more surplus
		richer := g
		c := g.Contributions[0].(engine.RecurringContribution)
		c.Amount = c.Amount.Add(bump)
		richer.Contributions = []engine.Contribution{c}
		up := surplusOf(t, richer, a, strategy)
		assert.True(t, up.GreaterThan(base), "iteration %d: %s should exceed %s", i, up, base)

		// more liability, less surplus
		poorer := g
		switch l := g.Liabilities[0].(type) {
		case engine.LumpSumLiability:
			l.AmountToday = l.AmountToday.Add(bump)
			poorer.Liabilities = []engine.Liability{l}
		case engine.RecurringLiability:
			l.AmountToday = l.AmountToday.Add(bump)
			poorer.Liabilities = []engine.Liability{l}
		}
		down := surplusOf(t, poorer, a, strategy)
		assert.True(t, down.LessThan(base), "iteration %d: %s should be below %s", i, down, base)
	}
}

// =============================================================================
// WORKED EXAMPLE
// =============================================================================

func TestSolve_CollegeSavingsWorkedExample(t *testing.T) {
	// GIVEN: 50000 a year in today's money for four years from 2045-08-01,
	// inflated at 5%, funded by 184.61 a month from today, fully invested in
	// one asset class returning 4%, nothing saved yet
	a := flatMarket(0.04)
	a.DefaultInflationRate = 0.05
	single, err := engine.NewFixedAllocation("Single Asset", engine.Weights{engine.Equity: 1})
	require.NoError(t, err)

	g := engine.Goal{
		Name:        "College Savings",
		AssetsToday: decimal.Zero,
		Liabilities: []engine.Liability{
			engine.RecurringLiability{
				AmountToday:   money(50000),
				StartDate:     date("2045-08-01"),
				DurationYears: 4,
				Frequency:     engine.FreqAnnual,
				InflationRate: engine.Rate(0.05),
			},
		},
		Contributions: []engine.Contribution{
			engine.RecurringContribution{Amount: dec("184.61"), Frequency: engine.FreqMonthly},
		},
	}

	// WHEN: projecting and solving
	sol, err := engine.NewFundingSolver().Solve(g, a, single)
	require.NoError(t, err)

	// THEN: the surplus matches the annuity computed by hand. Maturity is the
	// last payment, 283 months out; the deposits are months 0..282 and the
	// tuition payments months 247, 259, 271 and 283.
	assert.Equal(t, date("2048-08-01"), sol.Plan.Maturity)
	const horizon = 283
	grow := func(months int) float64 { return math.Pow(1.04, float64(horizon-months)/12) }

	deposits := 0.0
	for k := 0; k < horizon; k++ {
		deposits += 184.61 * grow(k)
	}
	tuition := 0.0
	for _, m := range []int{247, 259, 271, 283} {
		tuition += 50000 * math.Pow(1.05, float64(m)/12) * grow(m)
	}
	expected := deposits - tuition

	require.Less(t, expected, 0.0, "184.61 a month underfunds the goal")
	assert.InDelta(t, expected, inexact(sol.Baseline.SurplusAtMaturity), 0.01)
	assert.True(t, sol.Baseline.SurplusAtMaturity.IsNegative())

	// and 184.61 plus the solved amount funds it exactly
	require.True(t, sol.RequiredRecurring.IsPositive())
	assert.InDelta(t, -expected/deposits*184.61, inexact(sol.RequiredRecurring), 1e-4)

	substituted := g
	substituted.Contributions = []engine.Contribution{
		engine.RecurringContribution{Amount: dec("184.61").Add(sol.RequiredRecurring), Frequency: engine.FreqMonthly},
	}
	assert.InDelta(t, 0, inexact(surplusOf(t, substituted, a, single)), 1e-6)

	// the lump sum is the deficit discounted at the 4% return
	assert.InDelta(t, -expected/math.Pow(1.04, float64(horizon)/12), inexact(sol.RequiredLumpSum), 1e-4)
}
