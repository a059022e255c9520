/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Goals, assumptions and
  allocations reuse the factory schema types so a goal file can be posted
  as is.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Evaluate: EvaluateRequest, EvaluateResponse, OutcomeDTO
  Project:  ProjectRequest, ProjectionDTO
  Runs:     RunSummaryDTO (list), engine.Run (detail)
  Misc:     ScenarioDTO, HealthDTO, ErrorResponse

VALIDATION:
  Validation is done by the factory and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/goal.go: GoalJSON schema
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/factory"
	"github.com/warp/goal-engine/report"
)

// =============================================================================
// EVALUATE
// =============================================================================

// EvaluateRequest evaluates a batch of goals under one set of assumptions.
// Allocation is the default strategy for goals without their own.
type EvaluateRequest struct {
	Assumptions factory.AssumptionsJSON `json:"assumptions"`
	Allocation  *factory.AllocationJSON `json:"allocation,omitempty"`
	Goals       []factory.GoalJSON      `json:"goals"`
}

// EvaluateResponse is a recorded run.
type EvaluateResponse struct {
	RunID    string       `json:"run_id"`
	Today    engine.Date  `json:"today"`
	Results  []OutcomeDTO `json:"results"`
	Failures int          `json:"failures"`
}

// OutcomeDTO is the outcome of one goal. Display holds the formatted table
// cells keyed by column label.
type OutcomeDTO struct {
	Goal    string             `json:"goal"`
	Result  *engine.GoalResult `json:"result,omitempty"`
	Display map[string]string  `json:"display,omitempty"`
	Error   string             `json:"error,omitempty"`
	Cached  bool               `json:"cached,omitempty"`
}

// =============================================================================
// PROJECT
// =============================================================================

// ProjectRequest projects a single goal.
type ProjectRequest struct {
	Assumptions factory.AssumptionsJSON `json:"assumptions"`
	Allocation  *factory.AllocationJSON `json:"allocation,omitempty"`
	Goal        factory.GoalJSON        `json:"goal"`
}

// ProjectionDTO is the baseline trajectory of one goal.
type ProjectionDTO struct {
	Goal              string                    `json:"goal"`
	Strategy          string                    `json:"strategy"`
	MaturityDate      engine.Date               `json:"maturity_date"`
	Step              engine.Frequency          `json:"step"`
	TerminalBalance   decimal.Decimal           `json:"terminal_balance"`
	UnmetLiabilities  decimal.Decimal           `json:"unmet_liabilities"`
	SurplusAtMaturity decimal.Decimal           `json:"surplus_at_maturity"`
	Trajectory        []report.TrajectoryRecord `json:"trajectory"`
}

// =============================================================================
// RUNS
// =============================================================================

// RunSummaryDTO is one entry of GET /api/runs.
type RunSummaryDTO struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Today     engine.Date `json:"today"`
	Goals     []string    `json:"goals"`
	Failures  int         `json:"failures"`
}

// =============================================================================
// MISC
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Goals       int    `json:"goals"`
}

// LoadScenarioRequest selects a demo scenario to evaluate.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// HealthDTO is returned by GET /api/health.
type HealthDTO struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
