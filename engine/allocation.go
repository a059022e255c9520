package engine

import (
	"fmt"
	"math"
	"sort"
)

// WeightTolerance bounds how far a mix may drift from summing to 1.
const WeightTolerance = 1e-6

// =============================================================================
// WEIGHTS - Portfolio mix across asset classes
// =============================================================================

type Weights map[AssetClass]float64

// Validate checks every weight is in [0,1] and the mix sums to 1 within tolerance.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return configErrorf("allocation", "mix is empty")
	}
	sum := 0.0
	for class, weight := range w {
		if !finite(weight) || weight < 0 || weight > 1 {
			return configErrorf("allocation."+string(class), "weight %v outside [0,1]", weight)
		}
		sum += weight
	}
	if math.Abs(sum-1) > WeightTolerance {
		return configErrorf("allocation", "weights sum to %v, want 1", sum)
	}
	return nil
}

// ExpectedReturn is the weighted sum of each class's assumed annual return.
// A class with non-zero weight and no assumed return is a ConfigError.
func (w Weights) ExpectedReturn(returns map[AssetClass]float64) (float64, error) {
	total := 0.0
	for _, class := range w.Classes() {
		weight := w[class]
		if weight == 0 {
			continue
		}
		r, ok := returns[class]
		if !ok {
			return 0, configErrorf("assumptions.expected_returns."+string(class), "no expected return for allocated asset class")
		}
		total += weight * r
	}
	return total, nil
}

// Classes returns the asset classes of the mix in a stable order, so sums are
// evaluated in the same sequence on every call.
func (w Weights) Classes() []AssetClass {
	classes := make([]AssetClass, 0, len(w))
	for c := range w {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// =============================================================================
// ALLOCATION STRATEGY - Closed set of weight providers
// =============================================================================

// AllocationStrategy provides the portfolio mix as a function of the time left
// to maturity (in years). The set of implementations is closed: FixedAllocation
// and GlidePath.
type AllocationStrategy interface {
	Name() string

	// WeightsAt returns a fresh mix for the given time to maturity.
	// Weights are in [0,1] and sum to 1 within WeightTolerance.
	WeightsAt(timeToMaturity float64) Weights

	sealed()
}

// FixedAllocation always returns the same mix.
type FixedAllocation struct {
	Label string
	Mix   Weights
}

// NewFixedAllocation validates mix and returns a constant strategy.
func NewFixedAllocation(label string, mix Weights) (*FixedAllocation, error) {
	if err := mix.Validate(); err != nil {
		return nil, err
	}
	if label == "" {
		label = "Fixed"
	}
	return &FixedAllocation{Label: label, Mix: mix.Clone()}, nil
}

func (f *FixedAllocation) Name() string                { return f.Label }
func (f *FixedAllocation) WeightsAt(_ float64) Weights { return f.Mix.Clone() }
func (f *FixedAllocation) sealed()                     {}

// GlidePath moves linearly from StartMix (at or beyond Horizon years from
// maturity) to EndMix (at maturity).
type GlidePath struct {
	Label    string
	StartMix Weights
	EndMix   Weights
	Horizon  float64 // years
}

// NewGlidePath validates both mixes and the horizon.
func NewGlidePath(label string, start, end Weights, horizonYears float64) (*GlidePath, error) {
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("start mix: %w", err)
	}
	if err := end.Validate(); err != nil {
		return nil, fmt.Errorf("end mix: %w", err)
	}
	if !finite(horizonYears) || horizonYears <= 0 {
		return nil, configErrorf("allocation.horizon_years", "must be > 0, got %v", horizonYears)
	}
	if label == "" {
		label = "Glide Path"
	}
	return &GlidePath{Label: label, StartMix: start.Clone(), EndMix: end.Clone(), Horizon: horizonYears}, nil
}

func (g *GlidePath) Name() string { return g.Label }
func (g *GlidePath) sealed()      {}

func (g *GlidePath) WeightsAt(timeToMaturity float64) Weights {
	ttm := math.Max(0, math.Min(timeToMaturity, g.Horizon))
	progress := 1 - ttm/g.Horizon

	out := make(Weights, len(g.StartMix)+len(g.EndMix))
	for class := range g.StartMix {
		out[class] = 0
	}
	for class := range g.EndMix {
		out[class] = 0
	}
	for class := range out {
		start, end := g.StartMix[class], g.EndMix[class]
		w := start + (end-start)*progress
		// interpolation between two valid mixes stays in [0,1] up to rounding
		out[class] = math.Max(0, math.Min(1, w))
	}
	return out
}

// =============================================================================
// PRESETS
// =============================================================================

// EquityOnly is a fixed 100% equity allocation.
func EquityOnly() *FixedAllocation {
	return &FixedAllocation{Label: "Equity Only", Mix: Weights{Equity: 1}}
}

// DefaultGlidePathYears is the horizon over which DefaultGlidePath de-risks.
const DefaultGlidePathYears = 15

// DefaultGlidePath holds 100% equity until 15 years out, then shifts linearly
// into fixed income, reaching 100% fixed income at maturity.
func DefaultGlidePath() *GlidePath {
	return &GlidePath{
		Label:    "Glide Path",
		StartMix: Weights{Equity: 1, FixedIncome: 0},
		EndMix:   Weights{Equity: 0, FixedIncome: 1},
		Horizon:  DefaultGlidePathYears,
	}
}
