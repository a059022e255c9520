/*
batch.go - Parallel evaluation of many goals

PURPOSE:
  The "run all goals" mode. Goals are independent: the only shared value is
  the read-only Assumptions, so each goal is one task for a worker pool.

ORDERING:
  Outcomes come back in input order, never completion order. Output is
  reproducible regardless of Workers.

FAILURES:
  A goal's error lands in its Outcome.Err and siblings keep running.
  Cancellation is checked between goals only: a goal that has started runs
  to completion, unstarted goals get ctx.Err().

USAGE:
  runner := &Runner{Evaluator: NewEvaluator(), Workers: 4, Logger: slog.Default()}
  outcomes := runner.Run(ctx, assumptions, scenarios)

SEE ALSO:
  - result.go: Evaluator, the per-goal pipeline
*/
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Scenario is one goal paired with the strategy to evaluate it under.
type Scenario struct {
	Goal     Goal
	Strategy AllocationStrategy
}

// Outcome is the result of one scenario. Exactly one of Result and Err is set.
type Outcome struct {
	Name     string
	Result   *GoalResult
	Err      error
	Duration time.Duration
}

// Runner evaluates scenarios on a bounded pool of goroutines.
type Runner struct {
	Evaluator *Evaluator
	Workers   int          // <= 0 = runtime.NumCPU()
	Logger    *slog.Logger // nil = no logging
}

// Run evaluates every scenario and returns one Outcome per scenario, in order.
func (r *Runner) Run(ctx context.Context, a Assumptions, scenarios []Scenario) []Outcome {
	outcomes := make([]Outcome, len(scenarios))
	if len(scenarios) == 0 {
		return outcomes
	}

	evaluator := r.Evaluator
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.evaluate(ctx, evaluator, a, scenarios[i])
			}
		}()
	}

	for i := range scenarios {
		if ctx.Err() != nil {
			outcomes[i] = Outcome{Name: scenarios[i].Goal.Name, Err: ctx.Err()}
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			outcomes[i] = Outcome{Name: scenarios[i].Goal.Name, Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (r *Runner) evaluate(ctx context.Context, e *Evaluator, a Assumptions, sc Scenario) Outcome {
	name := sc.Goal.Name
	if err := ctx.Err(); err != nil {
		return Outcome{Name: name, Err: err}
	}

	start := time.Now()
	result, err := e.Evaluate(sc.Goal, a, sc.Strategy)
	out := Outcome{Name: name, Result: result, Err: err, Duration: time.Since(start)}
	r.log(ctx, out)
	return out
}

func (r *Runner) log(ctx context.Context, out Outcome) {
	if r.Logger == nil {
		return
	}
	attrs := []any{
		"goal", out.Name,
		"duration_ms", out.Duration.Milliseconds(),
		"success", out.Err == nil,
	}
	if out.Err != nil {
		attrs = append(attrs, "error", out.Err.Error())
		r.Logger.ErrorContext(ctx, "goal_evaluated", attrs...)
		return
	}
	attrs = append(attrs, "surplus", out.Result.SurplusAtMaturity.String())
	r.Logger.InfoContext(ctx, "goal_evaluated", attrs...)
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
