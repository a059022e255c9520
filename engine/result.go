/*
result.go - Goal result aggregation

PURPOSE:
  Collects the figures of one solved goal into an immutable GoalResult. This
  is the only place money is rounded: the solver and projection keep full
  precision.

FIELDS:
  name, assets_today, maturity_date, surplus_at_maturity,
  allocation_snapshot (mix at today's time to maturity),
  required_lump_sum_contribution, required_recurring_contribution (+ frequency),
  liabilities_present_value, funding_ratio (assets / PV, zero when PV is zero)

SEE ALSO:
  - solver.go: produces the Solution consumed here
  - batch.go: evaluates many goals with one Evaluator
*/
package engine

import (
	"github.com/shopspring/decimal"
)

const (
	// DefaultPrecision is the number of decimal places kept for money.
	DefaultPrecision int32 = 2

	// NoRounding disables rounding in ResultAggregator.
	NoRounding int32 = -1

	fundingRatioPlaces int32 = 4
)

// GoalResult is one evaluated goal. Treat as read-only once produced.
type GoalResult struct {
	Name                          string          `json:"name"`
	AssetsToday                   decimal.Decimal `json:"assets_today"`
	MaturityDate                  Date            `json:"maturity_date"`
	SurplusAtMaturity             decimal.Decimal `json:"surplus_at_maturity"`
	AllocationSnapshot            Weights         `json:"allocation_snapshot"`
	RequiredLumpSumContribution   decimal.Decimal `json:"required_lump_sum_contribution"`
	RequiredRecurringContribution decimal.Decimal `json:"required_recurring_contribution"`
	RecurringFrequency            Frequency       `json:"recurring_frequency"`
	LiabilitiesPresentValue       decimal.Decimal `json:"liabilities_present_value"`
	FundingRatio                  decimal.Decimal `json:"funding_ratio"`
}

// Underfunded reports whether the goal needs additional contributions.
func (r GoalResult) Underfunded() bool {
	return r.SurplusAtMaturity.IsNegative()
}

// =============================================================================
// RESULT AGGREGATOR
// =============================================================================

// ResultAggregator turns a Solution into a GoalResult.
type ResultAggregator struct {
	// Precision is the number of decimal places for money. Use NoRounding to
	// keep full precision.
	Precision int32
}

// NewResultAggregator rounds money to cents.
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{Precision: DefaultPrecision}
}

// Aggregate builds the result record. The allocation snapshot is the mix the
// strategy holds today, given the time left to maturity.
func (ra *ResultAggregator) Aggregate(sol *Solution) (*GoalResult, error) {
	plan := sol.Plan
	a := plan.Assumptions

	pv, err := PresentValue(plan.Liabilities, a)
	if err != nil {
		return nil, WithGoal(err, plan.Goal.Name)
	}
	pv = pv.Neg()

	ratio := decimal.Zero
	if pv.IsPositive() {
		ratio = plan.Goal.AssetsToday.Div(pv).Round(fundingRatioPlaces)
	}

	return &GoalResult{
		Name:                          plan.Goal.Name,
		AssetsToday:                   ra.round(plan.Goal.AssetsToday),
		MaturityDate:                  plan.Maturity,
		SurplusAtMaturity:             ra.round(sol.Baseline.SurplusAtMaturity),
		AllocationSnapshot:            plan.Strategy.WeightsAt(YearsBetween(a.Today, plan.Maturity)),
		RequiredLumpSumContribution:   ra.round(sol.RequiredLumpSum),
		RequiredRecurringContribution: ra.round(sol.RequiredRecurring),
		RecurringFrequency:            sol.RecurringFrequency,
		LiabilitiesPresentValue:       ra.round(pv),
		FundingRatio:                  ratio,
	}, nil
}

func (ra *ResultAggregator) round(d decimal.Decimal) decimal.Decimal {
	if ra.Precision < 0 {
		return d
	}
	return d.Round(ra.Precision)
}

// =============================================================================
// EVALUATOR - One goal end to end
// =============================================================================

// Evaluator runs schedule build, projection, solve and aggregation for one
// goal. It holds no per-goal state and is safe for concurrent use.
type Evaluator struct {
	Solver     *FundingSolver
	Aggregator *ResultAggregator
}

// NewEvaluator returns an evaluator with a monthly probe and cent rounding.
func NewEvaluator() *Evaluator {
	return &Evaluator{Solver: NewFundingSolver(), Aggregator: NewResultAggregator()}
}

// Evaluate computes the GoalResult of one goal.
func (e *Evaluator) Evaluate(goal Goal, a Assumptions, strategy AllocationStrategy) (*GoalResult, error) {
	if err := a.Validate(); err != nil {
		return nil, WithGoal(err, goal.Name)
	}
	sol, err := e.Solver.Solve(goal, a, strategy)
	if err != nil {
		return nil, err
	}
	return e.Aggregator.Aggregate(sol)
}

// ResultKey is the cache key of Evaluate(goal, a, strategy) under this
// evaluator's probe frequency and precision.
func (e *Evaluator) ResultKey(goal Goal, a Assumptions, strategy AllocationStrategy) (string, error) {
	return ResultKey(goal, a, strategy, e.Solver.probeFrequency(), e.Aggregator.Precision)
}
