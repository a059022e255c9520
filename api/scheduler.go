/*
scheduler.go - Periodic re-evaluation of a goals folder

PURPOSE:
  Goals drift as time passes: every day closer to maturity changes the
  allocation snapshot and the required contributions. The scheduler
  re-evaluates a folder of goal files on a fixed interval, with "today"
  advancing to the current date, and records each pass as a run.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass reloads constants, assumptions and goal files from disk, so
    edits are picked up without a restart
  - A file that fails to load becomes a failed outcome; siblings still run
  - Uses the same batch path as POST /api/evaluate (cache + run store)

CONFIGURATION:
  - Dir: folder of goal files (constants.json / assumptions.json inside)
  - CheckInterval: How often to evaluate (default: 24 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewEvaluationScheduler(handler, "./runs")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: runBatch
  - factory/loader.go: file discovery and loading
*/
package api

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/factory"
)

// EvaluationScheduler re-evaluates the goal files of Dir periodically.
type EvaluationScheduler struct {
	Handler       *Handler
	Dir           string
	CheckInterval time.Duration
	Enabled       bool

	// Allocation is the default strategy name for goals without their own.
	Allocation string

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	last   *EvaluateResponse
}

// NewEvaluationScheduler creates a daily scheduler for dir.
func NewEvaluationScheduler(handler *Handler, dir string) *EvaluationScheduler {
	return &EvaluationScheduler{
		Handler:       handler,
		Dir:           dir,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		Allocation:    factory.AllocGlidePath,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (es *EvaluationScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run(es.ticker)

	log.Printf("[Scheduler] Started on %s with check interval: %v", es.Dir, es.CheckInterval)
}

// Stop stops the scheduler and waits for a pass in progress.
func (es *EvaluationScheduler) Stop() {
	es.mu.Lock()
	ticker := es.ticker
	es.ticker = nil
	es.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (es *EvaluationScheduler) run(ticker *time.Ticker) {
	defer es.wg.Done()

	// Run immediately on start
	es.pass()

	for {
		select {
		case <-ticker.C:
			es.pass()
		case <-es.stop:
			return
		}
	}
}

func (es *EvaluationScheduler) pass() {
	resp, err := es.RunNow(context.Background())
	if err != nil {
		log.Printf("[Scheduler] Error: %v", err)
		return
	}
	log.Printf("[Scheduler] Run %s: %d goals, %d failed", resp.RunID, len(resp.Results), resp.Failures)
}

// RunNow evaluates the folder once and records the run.
func (es *EvaluationScheduler) RunNow(ctx context.Context) (*EvaluateResponse, error) {
	a, batch, err := es.load()
	if err != nil {
		return nil, err
	}
	resp, err := es.Handler.runBatch(ctx, a, batch)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	es.mu.Lock()
	es.last = resp
	es.mu.Unlock()
	return resp, nil
}

// Last returns the most recent pass, or nil before the first one.
func (es *EvaluationScheduler) Last() *EvaluateResponse {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.last
}

// load reads the folder: assumptions and the default strategy must be valid,
// individual goal files may fail.
func (es *EvaluationScheduler) load() (engine.Assumptions, []batchGoal, error) {
	constants, err := factory.LoadConstants(filepath.Join(es.Dir, factory.ConstantsStem+".json"))
	if err != nil {
		return engine.Assumptions{}, nil, err
	}
	a, err := factory.LoadAssumptionsFile(filepath.Join(es.Dir, factory.AssumptionsStem+".json"), constants, es.Handler.today())
	if err != nil {
		return engine.Assumptions{}, nil, err
	}
	fallback, err := factory.Allocation(es.Allocation)
	if err != nil {
		return engine.Assumptions{}, nil, err
	}

	files, err := factory.DiscoverGoalFiles(es.Dir)
	if err != nil {
		return engine.Assumptions{}, nil, err
	}
	if len(files) == 0 {
		return engine.Assumptions{}, nil, fmt.Errorf("no goal files found in %s", es.Dir)
	}

	batch := make([]batchGoal, len(files))
	for i, path := range files {
		gf, err := factory.LoadGoalFile(path, constants)
		if err != nil {
			batch[i] = batchGoal{name: path, err: err}
			continue
		}
		strategy := fallback
		if gf.Strategy != nil {
			strategy = gf.Strategy
		}
		batch[i] = batchGoal{name: gf.Goal.Name, goal: gf.Goal, strategy: strategy}
	}
	return a, batch, nil
}
