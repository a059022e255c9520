/*
solver.go - Required contribution solver

PURPOSE:
  Finds the one-time contribution today, and separately the level recurring
  contribution, that bring the projected surplus at maturity to zero.

KEY INSIGHT:
  The projection is linear in an added lump sum or an added level recurring
  contribution: returns depend on time only, never on the balance. So with
      S = baseline surplus
      Δ = surplus(with one unit probe) - S
  the required amount is exactly -S / Δ. No iteration needed.

PROBES:
  Lump sum:   +1 added to assets today.
  Recurring:  +1 every ProbeFrequency period from today, on the same dates a
              RecurringContribution starting today would pay (start <= d < maturity).

  The baseline and both probes run on one grid (finest of the goal's
  frequencies and the probe frequency) so they stay comparable.

EDGE CASES:
  - Overfunded goals: -S/Δ < 0 is clamped to 0 and the positive surplus is
    reported as is.
  - Recurring probe with Δ = 0 (no payment date before maturity): ConfigError.
  - Lump-sum probe with Δ <= 0: NumericDegeneracy.
  - Zero rates: Δ is the number of probe payments (or 1), still exact.

INCREMENTAL CONTRIBUTION:
  RequiredRecurring is on top of the goal's existing contributions. Replacing
  an existing level contribution c (same frequency, starting today) by
  c + RequiredRecurring zeroes the surplus as well.

SEE ALSO:
  - projection.go: the black box re-run for each probe
  - result.go: aggregates the Solution into a GoalResult
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PLAN - Everything derived once per goal
// =============================================================================

// Plan is a goal with its schedules built and its grid fixed.
type Plan struct {
	Goal          Goal
	Assumptions   Assumptions
	Strategy      AllocationStrategy
	Maturity      Date
	Liabilities   CashFlowSchedule
	Contributions CashFlowSchedule
	Step          Frequency

	engine *ProjectionEngine
}

// Project runs the plan with extra assets today and an extra contribution schedule.
func (p *Plan) Project(extraAssets decimal.Decimal, extra CashFlowSchedule) (*ProjectionResult, error) {
	contributions := p.Contributions
	if extra.Len() > 0 {
		contributions = contributions.Merge(extra)
	}
	res, err := p.engine.Project(ProjectionInput{
		AssetsToday:   p.Goal.AssetsToday.Add(extraAssets),
		Liabilities:   p.Liabilities,
		Contributions: contributions,
		Strategy:      p.Strategy,
		Assumptions:   p.Assumptions,
		Maturity:      p.Maturity,
		Step:          p.Step,
	})
	if err != nil {
		return nil, WithGoal(err, p.Goal.Name)
	}
	return res, nil
}

// Baseline projects the goal as configured.
func (p *Plan) Baseline() (*ProjectionResult, error) {
	return p.Project(decimal.Zero, CashFlowSchedule{})
}

// ResolveMaturity returns the explicit maturity, else the last liability date.
func ResolveMaturity(goal Goal, liabilities CashFlowSchedule, today Date) (Date, error) {
	maturity := goal.Maturity
	if maturity.IsZero() {
		maturity = liabilities.LastDate()
	}
	if maturity.IsZero() {
		return Date{}, configErrorf("maturity_date", "no liabilities to derive it from; set it explicitly")
	}
	if maturity.Before(today) {
		return Date{}, configErrorf("maturity_date", "%s is before today (%s)", maturity, today)
	}
	return maturity, nil
}

// =============================================================================
// FUNDING SOLVER
// =============================================================================

// FundingSolver computes required contributions by linear probing.
type FundingSolver struct {
	Engine *ProjectionEngine

	// ProbeFrequency is the period of the solved recurring contribution.
	// Empty = monthly.
	ProbeFrequency Frequency
}

// NewFundingSolver returns a solver with a monthly recurring probe.
func NewFundingSolver() *FundingSolver {
	return &FundingSolver{Engine: &ProjectionEngine{}, ProbeFrequency: FreqMonthly}
}

func (s *FundingSolver) probeFrequency() Frequency {
	if s.ProbeFrequency == "" {
		return FreqMonthly
	}
	return s.ProbeFrequency
}

// Prepare validates the goal, builds its schedules and fixes the grid.
func (s *FundingSolver) Prepare(goal Goal, a Assumptions, strategy AllocationStrategy) (*Plan, error) {
	if err := goal.Validate(); err != nil {
		return nil, WithGoal(err, goal.Name)
	}
	if strategy == nil {
		return nil, WithGoal(configErrorf("allocation", "strategy is required"), goal.Name)
	}
	if _, err := s.probeFrequency().Months(); err != nil {
		return nil, WithGoal(prefixField(err, "solver.probe"), goal.Name)
	}

	liabilities, err := ScheduleBuilder{Assumptions: a}.Liabilities(goal.Liabilities)
	if err != nil {
		return nil, WithGoal(err, goal.Name)
	}
	maturity, err := ResolveMaturity(goal, liabilities, a.Today)
	if err != nil {
		return nil, WithGoal(err, goal.Name)
	}
	contributions, err := ScheduleBuilder{Assumptions: a, Maturity: maturity}.Contributions(goal.Contributions)
	if err != nil {
		return nil, WithGoal(err, goal.Name)
	}

	engine := s.Engine
	if engine == nil {
		engine = &ProjectionEngine{}
	}
	return &Plan{
		Goal:          goal,
		Assumptions:   a,
		Strategy:      strategy,
		Maturity:      maturity,
		Liabilities:   liabilities,
		Contributions: contributions,
		Step:          Finest(liabilities.Step, contributions.Step, s.probeFrequency()),
		engine:        engine,
	}, nil
}

// Solution bundles the baseline projection with both required amounts.
type Solution struct {
	Plan               *Plan
	Baseline           *ProjectionResult
	RequiredLumpSum    decimal.Decimal
	RequiredRecurring  decimal.Decimal
	RecurringFrequency Frequency
}

// Solve prepares the goal and solves both contributions against one baseline.
func (s *FundingSolver) Solve(goal Goal, a Assumptions, strategy AllocationStrategy) (*Solution, error) {
	plan, err := s.Prepare(goal, a, strategy)
	if err != nil {
		return nil, err
	}
	baseline, err := plan.Baseline()
	if err != nil {
		return nil, err
	}
	lump, err := s.lumpSum(plan, baseline)
	if err != nil {
		return nil, err
	}
	recurring, err := s.recurring(plan, baseline)
	if err != nil {
		return nil, err
	}
	return &Solution{
		Plan:               plan,
		Baseline:           baseline,
		RequiredLumpSum:    lump,
		RequiredRecurring:  recurring,
		RecurringFrequency: s.probeFrequency(),
	}, nil
}

// SolveLumpSum returns the minimal non-negative amount to add to assets today.
func (s *FundingSolver) SolveLumpSum(goal Goal, a Assumptions, strategy AllocationStrategy) (decimal.Decimal, error) {
	plan, err := s.Prepare(goal, a, strategy)
	if err != nil {
		return decimal.Zero, err
	}
	baseline, err := plan.Baseline()
	if err != nil {
		return decimal.Zero, err
	}
	return s.lumpSum(plan, baseline)
}

// SolveRecurring returns the minimal non-negative level contribution per
// ProbeFrequency period, on top of existing contributions.
func (s *FundingSolver) SolveRecurring(goal Goal, a Assumptions, strategy AllocationStrategy) (decimal.Decimal, error) {
	plan, err := s.Prepare(goal, a, strategy)
	if err != nil {
		return decimal.Zero, err
	}
	baseline, err := plan.Baseline()
	if err != nil {
		return decimal.Zero, err
	}
	return s.recurring(plan, baseline)
}

func (s *FundingSolver) lumpSum(plan *Plan, baseline *ProjectionResult) (decimal.Decimal, error) {
	probe, err := plan.Project(decimal.NewFromInt(1), CashFlowSchedule{})
	if err != nil {
		return decimal.Zero, err
	}
	delta := probe.SurplusAtMaturity.Sub(baseline.SurplusAtMaturity)
	if !delta.IsPositive() {
		return decimal.Zero, WithGoal(&NumericDegeneracyError{
			Operation: "lump-sum probe marginal effect",
			Value:     delta.InexactFloat64(),
		}, plan.Goal.Name)
	}
	return requiredAmount(baseline.SurplusAtMaturity, delta), nil
}

func (s *FundingSolver) recurring(plan *Plan, baseline *ProjectionResult) (decimal.Decimal, error) {
	unit, err := ScheduleBuilder{Assumptions: plan.Assumptions, Maturity: plan.Maturity}.Contributions([]Contribution{
		RecurringContribution{Amount: decimal.NewFromInt(1), Frequency: s.probeFrequency()},
	})
	if err != nil {
		return decimal.Zero, WithGoal(err, plan.Goal.Name)
	}
	probe, err := plan.Project(decimal.Zero, unit)
	if err != nil {
		return decimal.Zero, err
	}
	delta := probe.SurplusAtMaturity.Sub(baseline.SurplusAtMaturity)
	if delta.IsZero() {
		return decimal.Zero, WithGoal(configErrorf("contributions",
			"no recurring %s contribution can affect the goal: no payment date between today (%s) and maturity (%s)",
			s.probeFrequency(), plan.Assumptions.Today, plan.Maturity), plan.Goal.Name)
	}
	if delta.IsNegative() {
		return decimal.Zero, WithGoal(&NumericDegeneracyError{
			Operation: "recurring probe marginal effect",
			Value:     delta.InexactFloat64(),
		}, plan.Goal.Name)
	}
	return requiredAmount(baseline.SurplusAtMaturity, delta), nil
}

// requiredAmount is max(0, -surplus/delta).
func requiredAmount(surplus, delta decimal.Decimal) decimal.Decimal {
	if !surplus.IsNegative() {
		return decimal.Zero
	}
	return surplus.Neg().Div(delta)
}
