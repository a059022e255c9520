// Package store provides in-process RunStore and ResultCache implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/goal-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.RunStore and engine.ResultCache.
type Memory struct {
	mu      sync.RWMutex
	runs    map[string]engine.Run
	order   []string // insertion order, oldest first
	results map[string]engine.GoalResult
}

func NewMemory() *Memory {
	return &Memory{
		runs:    make(map[string]engine.Run),
		results: make(map[string]engine.GoalResult),
	}
}

var (
	_ engine.RunStore    = (*Memory)(nil)
	_ engine.ResultCache = (*Memory)(nil)
)

// SaveRun stores a copy of run. Saving an existing ID replaces it in place.
func (m *Memory) SaveRun(_ context.Context, run engine.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; !ok {
		m.order = append(m.order, run.ID)
	}
	m.runs[run.ID] = copyRun(run)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*engine.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, engine.ErrRunNotFound
	}
	out := copyRun(run)
	return &out, nil
}

// ListRuns returns runs newest first by CreatedAt, ties broken by insertion order.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]engine.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]engine.Run, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		runs = append(runs, copyRun(m.runs[m.order[i]]))
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Get returns (nil, nil) on a miss.
func (m *Memory) Get(_ context.Context, key string) (*engine.GoalResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.results[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) Set(_ context.Context, key string, result *engine.GoalResult) error {
	if result == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[key] = *result
	return nil
}

func copyRun(run engine.Run) engine.Run {
	out := run
	out.Outcomes = append([]engine.RunOutcome(nil), run.Outcomes...)
	return out
}
