/*
Package factory provides JSON/YAML to Go goal conversion.

PURPOSE:
  Converts goal, assumptions and allocation documents into engine values.
  Goals are configured in files, not code: the factory validates the shape,
  applies defaults and reports field-qualified ConfigErrors.

GOAL SCHEMA:
  {
    "name": "College Savings",
    "assets_today": 10000,
    "maturity_date": "2038-09-01",            // optional
    "allocation": {"type": "glide_path"},     // optional per-goal strategy
    "liabilities": [
      {
        "type": "recurring",                  // or "lump_sum"
        "amount_today": 25000,
        "start_date": "2035-09-01",
        "duration_years": 4,
        "frequency": "annual",                // default annual
        "inflation_rate": 0.03                // optional
      }
    ],
    "contributions": [
      {"type": "recurring", "amount": 200, "frequency": "monthly"},
      {"type": "lump_sum", "amount": 5000, "date": "2026-01-01"}
    ],
    "deposit": {"monthly": 200}               // shorthand for a monthly contribution
  }

DEFAULTS:
  - liability type: recurring when duration_years is set, lump_sum otherwise
  - liability frequency: annual
  - contribution type: lump_sum when date is set, recurring otherwise
  - contribution frequency: monthly

USAGE:
  factory := NewGoalFactory()
  goal, strategy, err := factory.ParseGoal(jsonString)

SEE ALSO:
  - engine/goal.go: Goal type definition
  - loader.go: file loading and ${constant} resolution
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/goal-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// GoalJSON is the JSON representation of a goal.
type GoalJSON struct {
	Name          string             `json:"name"`
	AssetsToday   *decimal.Decimal   `json:"assets_today"`
	MaturityDate  string             `json:"maturity_date,omitempty"`
	Allocation    *AllocationJSON    `json:"allocation,omitempty"`
	Liabilities   []LiabilityJSON    `json:"liabilities,omitempty"`
	Contributions []ContributionJSON `json:"contributions,omitempty"`
	Deposit       *DepositJSON       `json:"deposit,omitempty"`
}

// LiabilityJSON represents one liability.
type LiabilityJSON struct {
	Type          string          `json:"type,omitempty"` // recurring, lump_sum
	AmountToday   decimal.Decimal `json:"amount_today"`
	StartDate     string          `json:"start_date,omitempty"`
	Date          string          `json:"date,omitempty"` // lump_sum alias of start_date
	DurationYears *int            `json:"duration_years,omitempty"`
	Frequency     string          `json:"frequency,omitempty"`
	InflationRate *float64        `json:"inflation_rate,omitempty"`
	Inflation     *float64        `json:"inflation,omitempty"` // legacy alias
}

// ContributionJSON represents one contribution.
type ContributionJSON struct {
	Type      string          `json:"type,omitempty"` // recurring, lump_sum
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency,omitempty"`
	StartDate string          `json:"start_date,omitempty"`
	EndDate   string          `json:"end_date,omitempty"`
	Date      string          `json:"date,omitempty"`
}

// DepositJSON is the legacy contribution shorthand.
type DepositJSON struct {
	Monthly decimal.Decimal `json:"monthly"`
}

const (
	TypeRecurring = "recurring"
	TypeLumpSum   = "lump_sum"
)

// =============================================================================
// GOAL FACTORY
// =============================================================================

// GoalFactory converts JSON goals to engine values.
type GoalFactory struct{}

// NewGoalFactory creates a new goal factory.
func NewGoalFactory() *GoalFactory {
	return &GoalFactory{}
}

// ParseGoal parses a JSON string into a Goal and its optional strategy
// override (nil when the document has no "allocation").
func (f *GoalFactory) ParseGoal(jsonStr string) (*engine.Goal, engine.AllocationStrategy, error) {
	var gj GoalJSON
	if err := json.Unmarshal([]byte(jsonStr), &gj); err != nil {
		return nil, nil, fmt.Errorf("failed to parse goal JSON: %w", err)
	}
	return f.FromJSON(gj)
}

// FromJSON converts GoalJSON to an engine.Goal.
func (f *GoalFactory) FromJSON(gj GoalJSON) (*engine.Goal, engine.AllocationStrategy, error) {
	goal, err := f.goal(gj)
	if err != nil {
		return nil, nil, engine.WithGoal(err, gj.Name)
	}

	var strategy engine.AllocationStrategy
	if gj.Allocation != nil {
		strategy, err = gj.Allocation.Strategy()
		if err != nil {
			return nil, nil, engine.WithGoal(err, gj.Name)
		}
	}
	return goal, strategy, nil
}

func (f *GoalFactory) goal(gj GoalJSON) (*engine.Goal, error) {
	if strings.TrimSpace(gj.Name) == "" {
		return nil, &engine.ConfigError{Field: "name", Reason: "is required"}
	}
	if gj.AssetsToday == nil {
		return nil, &engine.ConfigError{Field: "assets_today", Reason: "is required"}
	}

	goal := &engine.Goal{Name: gj.Name, AssetsToday: *gj.AssetsToday}

	var err error
	if goal.Maturity, err = optionalDate("maturity_date", gj.MaturityDate); err != nil {
		return nil, err
	}

	for i, lj := range gj.Liabilities {
		l, err := parseLiability(fmt.Sprintf("liabilities[%d]", i), lj)
		if err != nil {
			return nil, err
		}
		goal.Liabilities = append(goal.Liabilities, l)
	}

	for i, cj := range gj.Contributions {
		c, err := parseContribution(fmt.Sprintf("contributions[%d]", i), cj)
		if err != nil {
			return nil, err
		}
		goal.Contributions = append(goal.Contributions, c)
	}

	if gj.Deposit != nil && gj.Deposit.Monthly.IsPositive() {
		goal.Contributions = append(goal.Contributions, engine.RecurringContribution{
			Amount:    gj.Deposit.Monthly,
			Frequency: engine.FreqMonthly,
		})
	}

	if err := goal.Validate(); err != nil {
		return nil, err
	}
	return goal, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseLiability(field string, lj LiabilityJSON) (engine.Liability, error) {
	kind := lj.Type
	if kind == "" {
		kind = TypeLumpSum
		if lj.DurationYears != nil {
			kind = TypeRecurring
		}
	}

	rate := lj.InflationRate
	if rate == nil {
		rate = lj.Inflation
	}

	switch kind {
	case TypeLumpSum:
		raw := lj.Date
		if raw == "" {
			raw = lj.StartDate
		}
		d, err := requiredDate(field+".date", raw)
		if err != nil {
			return nil, err
		}
		return engine.LumpSumLiability{AmountToday: lj.AmountToday, Date: d, InflationRate: rate}, nil

	case TypeRecurring:
		start, err := requiredDate(field+".start_date", lj.StartDate)
		if err != nil {
			return nil, err
		}
		if lj.DurationYears == nil {
			return nil, &engine.ConfigError{Field: field + ".duration_years", Reason: "is required for recurring liabilities"}
		}
		freq := engine.Frequency(lj.Frequency)
		if freq == "" {
			freq = engine.FreqAnnual
		}
		return engine.RecurringLiability{
			AmountToday:   lj.AmountToday,
			StartDate:     start,
			DurationYears: *lj.DurationYears,
			Frequency:     freq,
			InflationRate: rate,
		}, nil
	}
	return nil, &engine.ConfigError{Field: field + ".type", Reason: fmt.Sprintf("unknown liability type %q", lj.Type)}
}

func parseContribution(field string, cj ContributionJSON) (engine.Contribution, error) {
	kind := cj.Type
	if kind == "" {
		kind = TypeRecurring
		if cj.Date != "" {
			kind = TypeLumpSum
		}
	}

	switch kind {
	case TypeLumpSum:
		d, err := requiredDate(field+".date", cj.Date)
		if err != nil {
			return nil, err
		}
		return engine.LumpSumContribution{Amount: cj.Amount, Date: d}, nil

	case TypeRecurring:
		var start engine.Date
		if !isToday(cj.StartDate) {
			var err error
			start, err = optionalDate(field+".start_date", cj.StartDate)
			if err != nil {
				return nil, err
			}
		}
		end, err := optionalDate(field+".end_date", cj.EndDate)
		if err != nil {
			return nil, err
		}
		freq := engine.Frequency(cj.Frequency)
		if freq == "" {
			freq = engine.FreqMonthly
		}
		return engine.RecurringContribution{Amount: cj.Amount, Frequency: freq, StartDate: start, EndDate: end}, nil
	}
	return nil, &engine.ConfigError{Field: field + ".type", Reason: fmt.Sprintf("unknown contribution type %q", cj.Type)}
}

// isToday reports whether raw is the "today" keyword. The zero date it maps
// to is resolved against Assumptions.Today when the schedule is built.
func isToday(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "today")
}

func requiredDate(field, raw string) (engine.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return engine.Date{}, &engine.ConfigError{Field: field, Reason: "is required"}
	}
	return optionalDate(field, raw)
}

func optionalDate(field, raw string) (engine.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return engine.Date{}, nil
	}
	d, err := engine.ParseDate(raw)
	if err != nil {
		return engine.Date{}, &engine.ConfigError{Field: field, Reason: err.Error()}
	}
	return d, nil
}
