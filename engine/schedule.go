/*
schedule.go - Cash-flow schedule builder

PURPOSE:
  Turns declarative liabilities and contributions into dated, signed cash
  flows. Liabilities are negative, contributions positive.

RECURRING EXPANSION:
  Payment k (k = 0, 1, ...) falls on start.AddMonths(k * periodMonths).

  Liabilities:    DurationYears * periodsPerYear payments.
  Contributions:  every payment date d with start <= d < maturity (and
                  d <= EndDate when set). A period that would straddle maturity
                  is dropped, never pro-rated (truncation policy).

INFLATION:
  A recurring liability payment on date d is
      amount_today * (1 + inflation)^YearsBetween(today, d)
  Inflation is anchored at today, not at the liability's own start date.

VALIDATION (ConfigError):
  - negative amounts
  - DurationYears <= 0
  - unrecognized frequency
  - liability or contribution dates before today
  - contribution end date before its start

SEE ALSO:
  - goal.go: the variants consumed here
  - projection.go: consumes CashFlowSchedule
*/
package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CASH FLOW SCHEDULE
// =============================================================================

// CashFlow is a single dated, signed amount.
type CashFlow struct {
	Date   Date
	Amount decimal.Decimal
	Source string // e.g. "liabilities[0]#3"
}

// CashFlowSchedule is sorted ascending by date. It is a derived value: build a
// new one instead of mutating Flows.
type CashFlowSchedule struct {
	Flows []CashFlow

	// Step is the finest recurring frequency that produced flows, "" if none.
	Step Frequency
}

// Len returns the number of flows.
func (s CashFlowSchedule) Len() int { return len(s.Flows) }

// Total returns the sum of all flows.
func (s CashFlowSchedule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, f := range s.Flows {
		total = total.Add(f.Amount)
	}
	return total
}

// LastDate returns the date of the last flow (zero if empty).
func (s CashFlowSchedule) LastDate() Date {
	if len(s.Flows) == 0 {
		return Date{}
	}
	return s.Flows[len(s.Flows)-1].Date
}

// Net returns the sum of flows dated in (from, to].
func (s CashFlowSchedule) Net(from, to Date) decimal.Decimal {
	total := decimal.Zero
	for _, f := range s.Flows {
		if f.Date.After(from) && f.Date.BeforeOrEqual(to) {
			total = total.Add(f.Amount)
		}
	}
	return total
}

// Merge returns a new schedule with the flows of both, still sorted.
func (s CashFlowSchedule) Merge(other CashFlowSchedule) CashFlowSchedule {
	flows := make([]CashFlow, 0, len(s.Flows)+len(other.Flows))
	flows = append(flows, s.Flows...)
	flows = append(flows, other.Flows...)
	sortFlows(flows)
	return CashFlowSchedule{Flows: flows, Step: Finest(s.Step, other.Step)}
}

func sortFlows(flows []CashFlow) {
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})
}

// =============================================================================
// SCHEDULE BUILDER
// =============================================================================

// ScheduleBuilder expands liabilities and contributions for one goal.
// Maturity is only needed for contributions.
type ScheduleBuilder struct {
	Assumptions Assumptions
	Maturity    Date
}

// Liabilities builds the (negative) liability schedule.
func (b ScheduleBuilder) Liabilities(items []Liability) (CashFlowSchedule, error) {
	var (
		flows []CashFlow
		freqs []Frequency
	)
	for i, item := range items {
		field := fmt.Sprintf("liabilities[%d]", i)
		var (
			out []CashFlow
			err error
		)
		switch l := item.(type) {
		case LumpSumLiability:
			out, err = b.lumpSumLiability(field, l)
		case *LumpSumLiability:
			out, err = b.lumpSumLiability(field, *l)
		case RecurringLiability:
			out, err = b.recurringLiability(field, l)
			freqs = append(freqs, l.Frequency)
		case *RecurringLiability:
			out, err = b.recurringLiability(field, *l)
			freqs = append(freqs, l.Frequency)
		default:
			err = configErrorf(field, "unsupported liability type %T", item)
		}
		if err != nil {
			return CashFlowSchedule{}, err
		}
		flows = append(flows, out...)
	}
	sortFlows(flows)
	return CashFlowSchedule{Flows: flows, Step: Finest(freqs...)}, nil
}

// Contributions builds the (positive) contribution schedule up to Maturity.
func (b ScheduleBuilder) Contributions(items []Contribution) (CashFlowSchedule, error) {
	var (
		flows []CashFlow
		freqs []Frequency
	)
	for i, item := range items {
		field := fmt.Sprintf("contributions[%d]", i)
		var (
			out []CashFlow
			err error
		)
		switch c := item.(type) {
		case LumpSumContribution:
			out, err = b.lumpSumContribution(field, c)
		case *LumpSumContribution:
			out, err = b.lumpSumContribution(field, *c)
		case RecurringContribution:
			out, err = b.recurringContribution(field, c)
			freqs = append(freqs, c.Frequency)
		case *RecurringContribution:
			out, err = b.recurringContribution(field, *c)
			freqs = append(freqs, c.Frequency)
		default:
			err = configErrorf(field, "unsupported contribution type %T", item)
		}
		if err != nil {
			return CashFlowSchedule{}, err
		}
		flows = append(flows, out...)
	}
	sortFlows(flows)
	return CashFlowSchedule{Flows: flows, Step: Finest(freqs...)}, nil
}

func (b ScheduleBuilder) lumpSumLiability(field string, l LumpSumLiability) ([]CashFlow, error) {
	if l.AmountToday.IsNegative() {
		return nil, configErrorf(field+".amount_today", "must be >= 0, got %s", l.AmountToday)
	}
	if err := b.notBeforeToday(field+".date", l.Date); err != nil {
		return nil, err
	}
	amount := l.AmountToday
	if l.InflationRate != nil {
		factor, err := b.inflationFactor(field, *l.InflationRate, l.Date)
		if err != nil {
			return nil, err
		}
		amount = amount.Mul(factor)
	}
	return []CashFlow{{Date: l.Date, Amount: amount.Neg(), Source: field}}, nil
}

func (b ScheduleBuilder) recurringLiability(field string, l RecurringLiability) ([]CashFlow, error) {
	if l.AmountToday.IsNegative() {
		return nil, configErrorf(field+".amount_today", "must be >= 0, got %s", l.AmountToday)
	}
	if l.DurationYears <= 0 {
		return nil, configErrorf(field+".duration_years", "must be > 0, got %d", l.DurationYears)
	}
	months, err := l.Frequency.Months()
	if err != nil {
		return nil, prefixField(err, field)
	}
	if err := b.notBeforeToday(field+".start_date", l.StartDate); err != nil {
		return nil, err
	}
	rate := b.Assumptions.InflationFor(l.InflationRate)

	count := l.DurationYears * 12 / months
	flows := make([]CashFlow, 0, count)
	for k := 0; k < count; k++ {
		date := l.StartDate.AddMonths(k * months)
		factor, err := b.inflationFactor(field, rate, date)
		if err != nil {
			return nil, err
		}
		flows = append(flows, CashFlow{
			Date:   date,
			Amount: l.AmountToday.Mul(factor).Neg(),
			Source: fmt.Sprintf("%s#%d", field, k),
		})
	}
	return flows, nil
}

func (b ScheduleBuilder) lumpSumContribution(field string, c LumpSumContribution) ([]CashFlow, error) {
	if c.Amount.IsNegative() {
		return nil, configErrorf(field+".amount", "must be >= 0, got %s", c.Amount)
	}
	if err := b.notBeforeToday(field+".date", c.Date); err != nil {
		return nil, err
	}
	return []CashFlow{{Date: c.Date, Amount: c.Amount, Source: field}}, nil
}

func (b ScheduleBuilder) recurringContribution(field string, c RecurringContribution) ([]CashFlow, error) {
	if c.Amount.IsNegative() {
		return nil, configErrorf(field+".amount", "must be >= 0, got %s", c.Amount)
	}
	months, err := c.Frequency.Months()
	if err != nil {
		return nil, prefixField(err, field)
	}
	start := c.StartDate
	if start.IsZero() {
		start = b.Assumptions.Today
	}
	if err := b.notBeforeToday(field+".start_date", start); err != nil {
		return nil, err
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(start) {
		return nil, configErrorf(field+".end_date", "%s is before start_date %s", c.EndDate, start)
	}
	if b.Maturity.IsZero() {
		return nil, configErrorf(field, "recurring contribution needs a maturity date")
	}

	var flows []CashFlow
	for k := 0; ; k++ {
		date := start.AddMonths(k * months)
		if !date.Before(b.Maturity) {
			break
		}
		if !c.EndDate.IsZero() && date.After(c.EndDate) {
			break
		}
		flows = append(flows, CashFlow{
			Date:   date,
			Amount: c.Amount,
			Source: fmt.Sprintf("%s#%d", field, k),
		})
	}
	return flows, nil
}

func (b ScheduleBuilder) notBeforeToday(field string, d Date) error {
	if d.IsZero() {
		return configErrorf(field, "is required")
	}
	if d.Before(b.Assumptions.Today) {
		return configErrorf(field, "%s is before today (%s)", d, b.Assumptions.Today)
	}
	return nil
}

// inflationFactor returns (1+rate)^YearsBetween(today, date) as a decimal.
func (b ScheduleBuilder) inflationFactor(field string, rate float64, date Date) (decimal.Decimal, error) {
	if !finite(rate) || rate < 0 {
		return decimal.Zero, configErrorf(field+".inflation_rate", "must be a finite rate >= 0, got %v", rate)
	}
	factor := CompoundAnnual.GrowthFactor(rate, YearsBetween(b.Assumptions.Today, date))
	if err := checkFinite(field+" inflation factor", factor); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(factor), nil
}

func prefixField(err error, prefix string) error {
	if cfg, ok := err.(*ConfigError); ok {
		cfg.Field = prefix + "." + cfg.Field
	}
	return err
}
