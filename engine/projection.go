/*
projection.go - Time-stepped asset projection

PURPOSE:
  Answers "where will this goal's assets be at maturity?" by stepping from
  today to the maturity date, growing the balance under the allocation
  strategy's expected return and netting dated cash flows.

GRID:
  t0 = today, tk = today.AddMonths(k * step), last point = maturity.
  step is the finest recurring frequency found in either schedule, monthly
  when both schedules are sparse (lump sums only), or an explicit override.

ONE STEP (prev -> next):
  1. time to maturity measured at prev -> allocation weights
  2. expected annual return = weighted sum of asset-class returns
  3. factor = compounding.GrowthFactor(return, YearsBetween(prev, next))
  4. balance *= factor
  5. balance += net cash flows dated in (prev, next]   (end-of-period policy)
  6. record (next, balance)

  Flows dated on or before today are part of the opening balance. Liabilities
  dated after maturity are "unmet": discounted back to maturity at the discount
  rate and subtracted from the terminal balance. Contributions dated after
  maturity are ignored.

ARITHMETIC:
  Balances are exact decimal Mul/Add; only the per-period factor comes from
  float math. The projection is therefore linear in any added contribution and
  bit-for-bit reproducible. Negative balances are recorded, not rejected.

EXAMPLE:
  engine := &ProjectionEngine{}
  result, err := engine.Project(ProjectionInput{
      AssetsToday:   decimal.NewFromInt(10000),
      Liabilities:   liabilities,
      Contributions: contributions,
      Strategy:      DefaultGlidePath(),
      Assumptions:   assumptions,
      Maturity:      MustParseDate("2045-08-01"),
  })

SEE ALSO:
  - schedule.go: builds the input schedules
  - solver.go: re-runs the projection with probe contributions
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECTION ENGINE
// =============================================================================

// ProjectionEngine is stateless; one value may serve concurrent goals.
type ProjectionEngine struct{}

// ProjectionInput contains all inputs for one projection.
type ProjectionInput struct {
	AssetsToday   decimal.Decimal
	Liabilities   CashFlowSchedule
	Contributions CashFlowSchedule
	Strategy      AllocationStrategy
	Assumptions   Assumptions
	Maturity      Date

	// Step overrides the grid frequency. Empty = derive from the schedules.
	Step Frequency
}

// TrajectoryPoint is the balance recorded at the end of one grid step.
type TrajectoryPoint struct {
	Date         Date            `json:"date"`
	Balance      decimal.Decimal `json:"balance"`
	NetCashFlow  decimal.Decimal `json:"net_cash_flow"` // flows applied at this point
	PeriodReturn float64         `json:"period_return"` // growth factor - 1 applied before the flows
}

// ProjectionResult contains the trajectory and the terminal figures.
type ProjectionResult struct {
	Trajectory      []TrajectoryPoint
	TerminalBalance decimal.Decimal

	// UnmetLiabilities is the value at maturity of liabilities dated after it.
	UnmetLiabilities decimal.Decimal

	// SurplusAtMaturity = TerminalBalance - UnmetLiabilities. Positive = overfunded.
	SurplusAtMaturity decimal.Decimal

	// GrowthFactor is the cumulative product of every period factor.
	GrowthFactor decimal.Decimal

	Step Frequency
}

// Project runs the projection.
func (pe *ProjectionEngine) Project(input ProjectionInput) (*ProjectionResult, error) {
	a := input.Assumptions
	if input.Strategy == nil {
		return nil, configErrorf("allocation", "strategy is required")
	}
	if input.Maturity.IsZero() {
		return nil, configErrorf("maturity_date", "is required")
	}
	if input.Maturity.Before(a.Today) {
		return nil, configErrorf("maturity_date", "%s is before today (%s)", input.Maturity, a.Today)
	}

	step := input.Step
	if step == "" {
		step = Finest(input.Liabilities.Step, input.Contributions.Step)
	}
	if step == "" {
		step = FreqMonthly
	}
	stepMonths, err := step.Months()
	if err != nil {
		return nil, prefixField(err, "projection")
	}

	flows := input.Liabilities.Merge(input.Contributions).Flows

	// Opening balance: assets plus anything dated on or before today.
	balance := input.AssetsToday
	opening := decimal.Zero
	next := 0
	for next < len(flows) && flows[next].Date.BeforeOrEqual(a.Today) {
		opening = opening.Add(flows[next].Amount)
		next++
	}
	balance = balance.Add(opening)

	growth := decimal.NewFromInt(1)
	trajectory := []TrajectoryPoint{{Date: a.Today, Balance: balance, NetCashFlow: opening}}

	prev := a.Today
	for k := 1; prev.Before(input.Maturity); k++ {
		end := a.Today.AddMonths(k * stepMonths)
		if end.After(input.Maturity) {
			end = input.Maturity
		}

		weights := input.Strategy.WeightsAt(YearsBetween(prev, input.Maturity))
		rate, err := weights.ExpectedReturn(a.ExpectedReturns)
		if err != nil {
			return nil, err
		}
		factor := a.Compounding.GrowthFactor(rate, YearsBetween(prev, end))
		if err := checkFinite(fmt.Sprintf("growth factor for period ending %s", end), factor); err != nil {
			return nil, err
		}
		f := decimal.NewFromFloat(factor)
		balance = balance.Mul(f)
		growth = growth.Mul(f)

		net := decimal.Zero
		for next < len(flows) && flows[next].Date.BeforeOrEqual(end) {
			net = net.Add(flows[next].Amount)
			next++
		}
		balance = balance.Add(net)

		trajectory = append(trajectory, TrajectoryPoint{
			Date:         end,
			Balance:      balance,
			NetCashFlow:  net,
			PeriodReturn: factor - 1,
		})
		prev = end
	}

	unmet, err := pe.unmetLiabilities(input.Liabilities, a, input.Maturity)
	if err != nil {
		return nil, err
	}

	return &ProjectionResult{
		Trajectory:        trajectory,
		TerminalBalance:   balance,
		UnmetLiabilities:  unmet,
		SurplusAtMaturity: balance.Sub(unmet),
		GrowthFactor:      growth,
		Step:              step,
	}, nil
}

// unmetLiabilities discounts liabilities dated after maturity back to maturity.
// Returned as a positive amount.
func (pe *ProjectionEngine) unmetLiabilities(liabilities CashFlowSchedule, a Assumptions, maturity Date) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, f := range liabilities.Flows {
		if !f.Date.After(maturity) {
			continue
		}
		df := a.DiscountFactor(YearsBetween(maturity, f.Date))
		if err := checkFinite("discount factor for "+f.Source, df); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(f.Amount.Neg().Mul(decimal.NewFromFloat(df)))
	}
	return total, nil
}

// PresentValue discounts every flow of the schedule back to today at the
// discount rate. Liability schedules yield a negative value.
func PresentValue(s CashFlowSchedule, a Assumptions) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, f := range s.Flows {
		df := a.DiscountFactor(YearsBetween(a.Today, f.Date))
		if err := checkFinite("discount factor for "+f.Source, df); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(f.Amount.Mul(decimal.NewFromFloat(df)))
	}
	return total, nil
}
