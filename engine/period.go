package engine

import "math"

// =============================================================================
// FREQUENCY - How often a recurring cash flow repeats
// =============================================================================

type Frequency string

const (
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqAnnual    Frequency = "annual"
)

// Months returns the period length in calendar months.
// Unrecognized frequencies are a ConfigError.
func (f Frequency) Months() (int, error) {
	switch f {
	case FreqMonthly:
		return 1, nil
	case FreqQuarterly:
		return 3, nil
	case FreqAnnual:
		return 12, nil
	default:
		return 0, &ConfigError{Field: "frequency", Reason: "unrecognized frequency " + quote(string(f))}
	}
}

// PeriodsPerYear returns 12 / Months().
func (f Frequency) PeriodsPerYear() (int, error) {
	m, err := f.Months()
	if err != nil {
		return 0, err
	}
	return 12 / m, nil
}

// Finest returns the shortest valid frequency among fs, or "" if none is valid.
func Finest(fs ...Frequency) Frequency {
	var best Frequency
	bestMonths := math.MaxInt
	for _, f := range fs {
		m, err := f.Months()
		if err != nil {
			continue
		}
		if m < bestMonths {
			best, bestMonths = f, m
		}
	}
	return best
}

// =============================================================================
// COMPOUNDING - Conversion from an annual rate to a growth factor
// =============================================================================

type Compounding string

const (
	CompoundAnnual     Compounding = "annual"
	CompoundMonthly    Compounding = "monthly"
	CompoundContinuous Compounding = "continuous"
)

// Valid reports whether c is a known convention.
func (c Compounding) Valid() bool {
	switch c {
	case CompoundAnnual, CompoundMonthly, CompoundContinuous:
		return true
	}
	return false
}

// GrowthFactor returns the factor by which one unit grows over `years` at the
// annual `rate` under convention c. The result may be non-finite for extreme
// inputs; callers check with checkFinite.
func (c Compounding) GrowthFactor(rate, years float64) float64 {
	switch c {
	case CompoundMonthly:
		return math.Pow(1+rate/12, 12*years)
	case CompoundContinuous:
		return math.Exp(rate * years)
	default:
		return math.Pow(1+rate, years)
	}
}
