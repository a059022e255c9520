package engine

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// =============================================================================
// RUN - A persisted batch evaluation
// =============================================================================

// Run is one batch evaluation as recorded by a RunStore.
type Run struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Today     Date         `json:"today"`
	Outcomes  []RunOutcome `json:"outcomes"`
}

// RunOutcome is the storable form of an Outcome: errors become strings.
type RunOutcome struct {
	GoalName string      `json:"goal_name"`
	Result   *GoalResult `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// NewRun converts batch outcomes into a Run.
func NewRun(id string, createdAt time.Time, today Date, outcomes []Outcome) Run {
	run := Run{ID: id, CreatedAt: createdAt, Today: today, Outcomes: make([]RunOutcome, len(outcomes))}
	for i, o := range outcomes {
		run.Outcomes[i] = RunOutcome{GoalName: o.Name, Result: o.Result}
		if o.Err != nil {
			run.Outcomes[i].Error = o.Err.Error()
		}
	}
	return run
}

// Failures counts outcomes with an error.
func (r Run) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Error != "" {
			n++
		}
	}
	return n
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// RunStore persists runs. Implementations must be safe for concurrent use.
type RunStore interface {
	// SaveRun inserts or replaces the run with the same ID.
	SaveRun(ctx context.Context, run Run) error

	// GetRun returns ErrRunNotFound for unknown IDs.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first, at most limit (<= 0 = all).
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// ResultCache memoizes GoalResults by input key.
// Get returns (nil, nil) on a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (*GoalResult, error)
	Set(ctx context.Context, key string, result *GoalResult) error
}

// ResultKey derives a cache key from everything that determines a GoalResult:
// the inputs, the recurring probe frequency and the rounding precision.
func ResultKey(goal Goal, a Assumptions, strategy AllocationStrategy, probe Frequency, precision int32) (string, error) {
	payload, err := json.Marshal(struct {
		Goal        Goal
		Assumptions Assumptions
		Strategy    AllocationStrategy
		Probe       Frequency
		Precision   int32
	}{goal, a, strategy, probe, precision})
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(payload), 16), nil
}
