package factory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/warp/goal-engine/engine"
)

// Allocation strategy names accepted in configs and on the command line.
const (
	AllocGlidePath  = "glide_path"
	AllocEquityOnly = "equity_only"
	AllocFixed      = "fixed"
)

// AllocationJSON represents an allocation strategy.
//
//	{"type": "glide_path"}                                    default 15y equity -> fixed income
//	{"type": "glide_path", "start_mix": {...}, "end_mix": {...}, "horizon_years": 10}
//	{"type": "equity_only"}
//	{"type": "fixed", "mix": {"equity": 0.6, "fixed_income": 0.4}}
type AllocationJSON struct {
	Type         string             `json:"type"`
	Label        string             `json:"label,omitempty"`
	Mix          map[string]float64 `json:"mix,omitempty"`
	StartMix     map[string]float64 `json:"start_mix,omitempty"`
	EndMix       map[string]float64 `json:"end_mix,omitempty"`
	HorizonYears float64            `json:"horizon_years,omitempty"`
}

// Strategy converts the JSON into an engine strategy.
func (aj AllocationJSON) Strategy() (engine.AllocationStrategy, error) {
	switch normalizeAllocation(aj.Type) {
	case AllocGlidePath:
		if aj.StartMix == nil && aj.EndMix == nil {
			gp := engine.DefaultGlidePath()
			if aj.HorizonYears > 0 {
				gp.Horizon = aj.HorizonYears
			}
			if aj.Label != "" {
				gp.Label = aj.Label
			}
			return gp, nil
		}
		horizon := aj.HorizonYears
		if horizon == 0 {
			horizon = engine.DefaultGlidePathYears
		}
		gp, err := engine.NewGlidePath(aj.Label, weights(aj.StartMix), weights(aj.EndMix), horizon)
		if err != nil {
			return nil, err
		}
		return gp, nil

	case AllocEquityOnly:
		return engine.EquityOnly(), nil

	case AllocFixed:
		fixed, err := engine.NewFixedAllocation(aj.Label, weights(aj.Mix))
		if err != nil {
			return nil, err
		}
		return fixed, nil
	}
	return nil, &engine.ConfigError{
		Field:  "allocation.type",
		Reason: fmt.Sprintf("unknown allocation %q (want one of %s)", aj.Type, strings.Join(AllocationNames(), ", ")),
	}
}

// Allocation returns the preset strategy for a name, e.g. from a CLI flag.
func Allocation(name string) (engine.AllocationStrategy, error) {
	if normalizeAllocation(name) == AllocFixed {
		return nil, &engine.ConfigError{Field: "allocation", Reason: "fixed allocation needs a mix; use a config file"}
	}
	return AllocationJSON{Type: name}.Strategy()
}

// AllocationNames lists the accepted strategy names.
func AllocationNames() []string {
	names := []string{AllocGlidePath, AllocEquityOnly, AllocFixed}
	sort.Strings(names)
	return names
}

func normalizeAllocation(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	switch n {
	case "", "glidepath", "default":
		return AllocGlidePath
	case "equity":
		return AllocEquityOnly
	}
	return n
}

func weights(m map[string]float64) engine.Weights {
	w := make(engine.Weights, len(m))
	for class, v := range m {
		w[engine.AssetClass(class)] = v
	}
	return w
}
