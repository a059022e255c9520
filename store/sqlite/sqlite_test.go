package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func carResult() *engine.GoalResult {
	return &engine.GoalResult{
		Name:                          "Car",
		AssetsToday:                   decimal.RequireFromString("1000.00"),
		MaturityDate:                  engine.MustParseDate("2027-01-01"),
		SurplusAtMaturity:             decimal.RequireFromString("-4000.00"),
		AllocationSnapshot:            engine.Weights{engine.Equity: 1},
		RequiredLumpSumContribution:   decimal.RequireFromString("4000.00"),
		RequiredRecurringContribution: decimal.RequireFromString("166.67"),
		RecurringFrequency:            engine.FreqMonthly,
		LiabilitiesPresentValue:       decimal.RequireFromString("5000.00"),
		FundingRatio:                  decimal.RequireFromString("0.2"),
	}
}

func run(id string, at time.Time) engine.Run {
	return engine.Run{
		ID:        id,
		CreatedAt: at,
		Today:     engine.MustParseDate("2025-01-01"),
		Outcomes: []engine.RunOutcome{
			{GoalName: "Car", Result: carResult()},
			{GoalName: "Broken", Error: `config error: goal "Broken": maturity_date: is required`},
		},
	}
}

// =============================================================================
// RUNS
// =============================================================================

func TestStore_SaveAndGetRun(t *testing.T) {
	// GIVEN: a saved run with one success and one failure
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2025, 1, 1, 12, 30, 0, 123, time.UTC)
	require.NoError(t, s.SaveRun(ctx, run("r1", at)))

	// WHEN: read back
	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)

	// THEN: outcomes come back in order with exact decimals
	assert.Equal(t, "r1", got.ID)
	assert.True(t, got.CreatedAt.Equal(at))
	assert.Equal(t, "2025-01-01", got.Today.String())
	require.Len(t, got.Outcomes, 2)

	car := got.Outcomes[0]
	require.NotNil(t, car.Result)
	assert.Equal(t, "Car", car.GoalName)
	assert.True(t, car.Result.SurplusAtMaturity.Equal(decimal.NewFromInt(-4000)))
	assert.True(t, car.Result.RequiredRecurringContribution.Equal(decimal.RequireFromString("166.67")))
	assert.Equal(t, "2027-01-01", car.Result.MaturityDate.String())
	assert.Equal(t, 1.0, car.Result.AllocationSnapshot[engine.Equity])
	assert.Empty(t, car.Error)

	broken := got.Outcomes[1]
	assert.Nil(t, broken.Result)
	assert.Contains(t, broken.Error, "maturity_date")
	assert.Equal(t, 1, got.Failures())
}

func TestStore_GetRunNotFound(t *testing.T) {
	_, err := newStore(t).GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrRunNotFound)
	assert.True(t, engine.IsNotFound(err))
}

func TestStore_SaveRunReplaces(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, run("r1", at)))

	replacement := run("r1", at)
	replacement.Outcomes = replacement.Outcomes[:1]
	require.NoError(t, s.SaveRun(ctx, replacement))

	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got.Outcomes, 1)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, run("old", base)))
	require.NoError(t, s.SaveRun(ctx, run("new", base.Add(2*time.Hour))))
	require.NoError(t, s.SaveRun(ctx, run("mid", base.Add(500*time.Millisecond))))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Len(t, runs[0].Outcomes, 2)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_EmptyRun(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveRun(ctx, engine.Run{ID: "empty", CreatedAt: time.Now(), Today: engine.MustParseDate("2025-01-01")}))

	got, err := s.GetRun(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got.Outcomes)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(ctx, run("r1", time.Now())))
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got.Outcomes, 2)
}

// =============================================================================
// RESULT CACHE
// =============================================================================

func TestStore_ResultCache(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "miss is not an error")

	require.NoError(t, s.Set(ctx, "k", carResult()))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Car", got.Name)
	assert.True(t, got.FundingRatio.Equal(decimal.RequireFromString("0.2")))

	// overwrite
	updated := carResult()
	updated.Name = "Car v2"
	require.NoError(t, s.Set(ctx, "k", updated))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Car v2", got.Name)
}
