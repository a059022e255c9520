/*
goal.go - Goal, liability and contribution definitions

PURPOSE:
  A Goal is a named funding objective: assets held today, future obligations
  (liabilities) and planned inflows (contributions). Liabilities and
  contributions are closed sum types, one struct per variant, consumed by an
  exhaustive type switch in ScheduleBuilder.

VARIANTS:
  Liability:
    LumpSumLiability    one payment on Date
    RecurringLiability  DurationYears of payments every Frequency from StartDate,
                        inflated from today

  Contribution:
    LumpSumContribution    one inflow on Date
    RecurringContribution  inflows every Frequency from StartDate (zero = today)
                           until EndDate (zero = maturity)

MATURITY:
  Goal.Maturity is optional. When zero, the maturity is the date of the last
  liability payment.

SEE ALSO:
  - schedule.go: turns these into dated cash flows
  - solver.go: evaluates a Goal end to end
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// GOAL
// =============================================================================

type Goal struct {
	Name          string
	AssetsToday   decimal.Decimal
	Maturity      Date // zero = derived from liabilities
	Liabilities   []Liability
	Contributions []Contribution
}

// Validate checks goal-level fields. Item-level checks happen in ScheduleBuilder.
func (g Goal) Validate() error {
	if g.Name == "" {
		return configErrorf("name", "is required")
	}
	if g.AssetsToday.IsNegative() {
		return configErrorf("assets_today", "must be >= 0, got %s", g.AssetsToday)
	}
	return nil
}

// =============================================================================
// LIABILITIES
// =============================================================================

// Liability is a future cash obligation.
type Liability interface {
	liability()
}

// LumpSumLiability is a single payment at face amount. When InflationRate is
// set the amount is inflated from today to Date at that rate.
type LumpSumLiability struct {
	AmountToday   decimal.Decimal
	Date          Date
	InflationRate *float64
}

// RecurringLiability pays AmountToday (in today's money) every period for
// DurationYears, starting on StartDate. Each payment is inflated from today.
type RecurringLiability struct {
	AmountToday   decimal.Decimal
	StartDate     Date
	DurationYears int
	Frequency     Frequency
	InflationRate *float64 // nil = Assumptions.DefaultInflationRate
}

func (LumpSumLiability) liability()   {}
func (RecurringLiability) liability() {}

// =============================================================================
// CONTRIBUTIONS
// =============================================================================

// Contribution is a cash inflow funding the goal.
type Contribution interface {
	contribution()
}

type LumpSumContribution struct {
	Amount decimal.Decimal
	Date   Date
}

// RecurringContribution pays Amount every period. Contributions are not
// inflated. A zero StartDate means today; a zero EndDate means maturity.
type RecurringContribution struct {
	Amount    decimal.Decimal
	Frequency Frequency
	StartDate Date
	EndDate   Date
}

func (LumpSumContribution) contribution()   {}
func (RecurringContribution) contribution() {}

// Rate is a helper for optional inflation rates in literals.
func Rate(r float64) *float64 { return &r }
