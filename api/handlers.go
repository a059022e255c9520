/*
handlers.go - HTTP API handlers for the goal funding engine

PURPOSE:
  Exposes goal evaluation and projection via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Evaluation:
    POST   /api/evaluate        Evaluate a batch of goals, record the run
    POST   /api/project         Baseline trajectory of one goal

  Runs:
    GET    /api/runs            List recorded runs (newest first, ?limit=N)
    GET    /api/runs/{id}       Get one run with every result

  Scenarios:
    GET    /api/scenarios       List demo scenarios
    POST   /api/scenarios/load  Evaluate a demo scenario as a run

  Health:
    GET    /api/health

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Evaluator: the engine pipeline (shared, stateless)
  - Runs: where every batch is recorded
  - Cache: optional result memoization keyed by Evaluator.ResultKey

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert with the factory (field-qualified ConfigErrors)
  3. Evaluate goals on the batch runner
  4. Record the run and serialize the response

ERROR HANDLING:
  Errors are returned as JSON {error, details} with HTTP status:
  - 400: ConfigError / NumericDegeneracy, malformed body
  - 404: Unknown run
  - 500: Internal errors
  A goal that fails inside a batch does not fail the request; its error is
  reported in its outcome.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/factory"
	"github.com/warp/goal-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Evaluator *engine.Evaluator
	Runs      engine.RunStore
	Cache     engine.ResultCache // nil = no caching

	Workers int          // batch runner pool size, <= 0 = NumCPU
	Logger  *slog.Logger // nil = slog.Default()
	Now     func() time.Time
}

// NewHandler creates a handler recording runs in runs.
func NewHandler(runs engine.RunStore) *Handler {
	return &Handler{
		Evaluator: engine.NewEvaluator(),
		Runs:      runs,
		Now:       time.Now,
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) today() engine.Date {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	t := now()
	return engine.NewDate(t.Year(), t.Month(), t.Day())
}

// =============================================================================
// EVALUATION HANDLERS
// =============================================================================

// Evaluate runs every goal of the request and records the run.
// POST /api/evaluate
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if len(req.Goals) == 0 {
		writeError(w, http.StatusBadRequest, "At least one goal is required", nil)
		return
	}

	a, strategy, err := h.inputs(req.Assumptions, req.Allocation)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	batch := make([]batchGoal, len(req.Goals))
	for i, gj := range req.Goals {
		batch[i] = newBatchGoal(gj, strategy)
	}

	resp, err := h.runBatch(r.Context(), a, batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record run", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Project returns the baseline trajectory of one goal.
// POST /api/project
func (h *Handler) Project(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	a, strategy, err := h.inputs(req.Assumptions, req.Allocation)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	goal, own, err := factory.NewGoalFactory().FromJSON(req.Goal)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if own != nil {
		strategy = own
	}

	plan, err := h.Evaluator.Solver.Prepare(*goal, a, strategy)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	res, err := plan.Baseline()
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProjectionDTO{
		Goal:              goal.Name,
		Strategy:          strategy.Name(),
		MaturityDate:      plan.Maturity,
		Step:              res.Step,
		TerminalBalance:   report.RoundMoney(res.TerminalBalance, engine.DefaultPrecision),
		UnmetLiabilities:  report.RoundMoney(res.UnmetLiabilities, engine.DefaultPrecision),
		SurplusAtMaturity: report.RoundMoney(res.SurplusAtMaturity, engine.DefaultPrecision),
		Trajectory:        report.TrajectoryRecords(res.Trajectory, engine.DefaultPrecision),
	})
}

// inputs converts the shared assumptions and default allocation of a request.
func (h *Handler) inputs(aj factory.AssumptionsJSON, alloc *factory.AllocationJSON) (engine.Assumptions, engine.AllocationStrategy, error) {
	a, err := aj.ToAssumptions(h.today())
	if err != nil {
		return engine.Assumptions{}, nil, err
	}
	if alloc == nil {
		alloc = &factory.AllocationJSON{Type: factory.AllocGlidePath}
	}
	strategy, err := alloc.Strategy()
	if err != nil {
		return engine.Assumptions{}, nil, err
	}
	return a, strategy, nil
}

// =============================================================================
// BATCH - shared by Evaluate, LoadScenario and the scheduler
// =============================================================================

// batchGoal is one goal of a batch, or the error that prevented building it.
type batchGoal struct {
	name     string
	goal     engine.Goal
	strategy engine.AllocationStrategy
	err      error
}

func newBatchGoal(gj factory.GoalJSON, fallback engine.AllocationStrategy) batchGoal {
	goal, own, err := factory.NewGoalFactory().FromJSON(gj)
	if err != nil {
		return batchGoal{name: gj.Name, err: err}
	}
	strategy := fallback
	if own != nil {
		strategy = own
	}
	return batchGoal{name: goal.Name, goal: *goal, strategy: strategy}
}

// runBatch evaluates goals (through the cache when configured), records the
// run and builds the response. Only a failure to record is returned.
func (h *Handler) runBatch(ctx context.Context, a engine.Assumptions, batch []batchGoal) (*EvaluateResponse, error) {
	outcomes := make([]engine.Outcome, len(batch))
	cached := make([]bool, len(batch))
	keys := make([]string, len(batch))

	var pending []engine.Scenario
	var slots []int
	for i, g := range batch {
		if g.err != nil {
			outcomes[i] = engine.Outcome{Name: g.name, Err: g.err}
			continue
		}
		if result := h.cached(ctx, g, a, &keys[i]); result != nil {
			outcomes[i] = engine.Outcome{Name: g.name, Result: result}
			cached[i] = true
			continue
		}
		pending = append(pending, engine.Scenario{Goal: g.goal, Strategy: g.strategy})
		slots = append(slots, i)
	}

	runner := &engine.Runner{Evaluator: h.Evaluator, Workers: h.Workers, Logger: h.logger()}
	for j, o := range runner.Run(ctx, a, pending) {
		i := slots[j]
		outcomes[i] = o
		if o.Err == nil && keys[i] != "" && h.Cache != nil {
			if err := h.Cache.Set(ctx, keys[i], o.Result); err != nil {
				h.logger().WarnContext(ctx, "cache_write_failed", "goal", o.Name, "error", err)
			}
		}
	}

	run := engine.NewRun(uuid.NewString(), time.Now().UTC(), a.Today, outcomes)
	if err := h.Runs.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	table := &report.Table{Columns: report.DetailSchema, Currency: report.DefaultCurrency}
	resp := &EvaluateResponse{
		RunID:    run.ID,
		Today:    run.Today,
		Results:  make([]OutcomeDTO, len(outcomes)),
		Failures: run.Failures(),
	}
	for i, o := range run.Outcomes {
		dto := OutcomeDTO{Goal: o.GoalName, Result: o.Result, Error: o.Error, Cached: cached[i]}
		if o.Result != nil {
			dto.Display = table.Record(o.Result)
		}
		resp.Results[i] = dto
	}
	return resp, nil
}

// cached returns the memoized result of g, storing its key in *key. Cache
// failures are logged and treated as misses.
func (h *Handler) cached(ctx context.Context, g batchGoal, a engine.Assumptions, key *string) *engine.GoalResult {
	if h.Cache == nil {
		return nil
	}
	k, err := h.Evaluator.ResultKey(g.goal, a, g.strategy)
	if err != nil {
		h.logger().WarnContext(ctx, "cache_key_failed", "goal", g.name, "error", err)
		return nil
	}
	*key = k
	result, err := h.Cache.Get(ctx, k)
	if err != nil {
		h.logger().WarnContext(ctx, "cache_read_failed", "goal", g.name, "error", err)
		return nil
	}
	return result
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns recorded runs, newest first.
// GET /api/runs?limit=N
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit must be a non-negative integer, got %q", raw))
			return
		}
		limit = n
	}

	runs, err := h.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunSummaryDTO, len(runs))
	for i, run := range runs {
		goals := make([]string, len(run.Outcomes))
		for j, o := range run.Outcomes {
			goals[j] = o.GoalName
		}
		dtos[i] = RunSummaryDTO{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			Today:     run.Today,
			Goals:     goals,
			Failures:  run.Failures(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run with every result.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Time: time.Now().UTC()})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps the engine error taxonomy to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, engine.ErrNumericDegeneracy):
		writeError(w, http.StatusBadRequest, "Numeric degeneracy", err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid configuration", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
