package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/goal-engine/cli"
	"github.com/warp/goal-engine/engine/store"
)

const zeroMarket = `{
	"discount_rate": 0,
	"default_inflation_rate": 0,
	"expected_returns": {"equity": 0, "fixed_income": 0, "cash_equivalent": 0}
}`

// 1000 today, 5000 due in two years, nothing grows: 4000 short.
const carGoal = `{
	"name": "Car",
	"assets_today": 1000,
	"allocation": {"type": "equity_only"},
	"liabilities": [{"amount_today": 5000, "date": "2027-01-01"}]
}`

type fixture struct {
	dir  string
	runs *store.Memory
	app  *cli.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	write(t, dir, "assumptions.json", zeroMarket)
	runs := store.NewMemory()
	return &fixture{
		dir:  dir,
		runs: runs,
		app: &cli.App{
			Runs: runs,
			Now:  func() time.Time { return time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC) },
		},
	}
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command and returns stdout, stderr and the error.
func (f *fixture) execute(args ...string) (string, string, error) {
	cmd := cli.NewRootCmd(f.app)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	base := []string{
		"--assumptions", filepath.Join(f.dir, "assumptions.json"),
		"--constants", filepath.Join(f.dir, "constants.json"),
	}
	cmd.SetArgs(append(args[:1:1], append(base, args[1:]...)...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// =============================================================================
// RUN
// =============================================================================

func TestRun_SingleFileTable(t *testing.T) {
	// GIVEN: one underfunded goal under zero rates
	f := newFixture(t)
	path := write(t, f.dir, "car.json", carGoal)

	// WHEN: run it
	stdout, stderr, err := f.execute("run", "-f", path)

	// THEN: the table shows the shortfall and both required contributions
	require.NoError(t, err)
	assert.Contains(t, stderr, "Running goal: "+path)
	assert.Contains(t, stdout, "Portfolio Value (Today)")
	assert.Contains(t, stdout, "Car")
	assert.Contains(t, stdout, "-$4,000.00")
	assert.Contains(t, stdout, "$4,000.00")
	assert.Contains(t, stdout, "$166.67")
	assert.Contains(t, stdout, "100.00%") // equity only
}

func TestRun_RecordsRun(t *testing.T) {
	f := newFixture(t)
	path := write(t, f.dir, "car.json", carGoal)

	_, _, err := f.execute("run", "-f", path)
	require.NoError(t, err)

	runs, err := f.runs.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "2025-01-01", runs[0].Today.String())
	require.Len(t, runs[0].Outcomes, 1)
	assert.Equal(t, "Car", runs[0].Outcomes[0].GoalName)
	assert.Equal(t, 0, runs[0].Failures())
}

func TestRun_AllWithConstantsAndJSONOutput(t *testing.T) {
	// GIVEN: a folder with constants, assumptions and two goals
	f := newFixture(t)
	write(t, f.dir, "constants.json", `{"car": {"price": 5000}}`)
	write(t, f.dir, "a_car.json", `{
		"name": "Car",
		"assets_today": 1000,
		"liabilities": [{"amount_today": "${car.price}", "date": "2027-01-01"}]
	}`)
	write(t, f.dir, "b_done.yaml", `
name: Done
assets_today: 9000
maturity_date: 2027-01-01
liabilities:
  - amount_today: 5000
    date: 2027-01-01
`)

	// WHEN: run --all with JSON output
	stdout, _, err := f.execute("run", "--all", "--dir", f.dir, "--format", "json", "--detail")
	require.NoError(t, err)

	// THEN: one entry per goal file in name order, constants resolved
	var doc struct {
		RunID   string `json:"run_id"`
		Today   string `json:"today"`
		Results []struct {
			File    string            `json:"file"`
			Goal    string            `json:"goal"`
			Display map[string]string `json:"display"`
			Result  struct {
				Surplus      string `json:"surplus_at_maturity"`
				FundingRatio string `json:"funding_ratio"`
			} `json:"result"`
			Error string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, "2025-01-01", doc.Today)
	require.Len(t, doc.Results, 2)

	car, done := doc.Results[0], doc.Results[1]
	assert.Equal(t, "Car", car.Goal)
	assert.Equal(t, "-4000", car.Result.Surplus)
	assert.Equal(t, "0.2", car.Result.FundingRatio)
	assert.Equal(t, "20.00%", car.Display["Funding Ratio (%)"])

	assert.Equal(t, "Done", done.Goal)
	assert.Equal(t, "4000", done.Result.Surplus)
	assert.Empty(t, done.Error)
}

func TestRun_LoadFailureDoesNotStopSiblings(t *testing.T) {
	// GIVEN: one good goal and one with a bad date
	f := newFixture(t)
	good := write(t, f.dir, "car.json", carGoal)
	bad := write(t, f.dir, "bad.json", `{"name": "Bad", "liabilities": [{"amount_today": 1, "date": "soon"}]}`)

	// WHEN: run both
	stdout, stderr, err := f.execute("run", "-f", bad, "-f", good)

	// THEN: the good goal is reported, the bad one fails the command
	require.Error(t, err)
	assert.ErrorIs(t, err, cli.ErrGoalsFailed)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, stdout, "Car")
	assert.Contains(t, stderr, "FAILED "+bad)

	runs, _ := f.runs.ListRuns(context.Background(), 0)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Failures())
}

func TestRun_VerboseLogsEachGoal(t *testing.T) {
	f := newFixture(t)
	path := write(t, f.dir, "car.json", carGoal)

	_, stderr, err := f.execute("run", "-v", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "goal_evaluated")
	assert.Contains(t, stderr, "goal=Car")
}

func TestRun_Errors(t *testing.T) {
	f := newFixture(t)
	path := write(t, f.dir, "car.json", carGoal)

	_, _, err := f.execute("run")
	assert.ErrorContains(t, err, "specify --file or --all")

	empty := t.TempDir()
	_, _, err = f.execute("run", "--all", "--dir", empty)
	assert.ErrorContains(t, err, "no goal files found")

	_, _, err = f.execute("run", "-f", path, "--format", "xml")
	assert.ErrorContains(t, err, "--format")

	_, _, err = f.execute("run", "-f", path, "--today", "tomorrow")
	assert.ErrorContains(t, err, "--today")

	_, _, err = f.execute("run", "-f", path, "--allocation", "fixed")
	assert.ErrorContains(t, err, "--allocation")
}

// =============================================================================
// PROJECT
// =============================================================================

func TestProject_Table(t *testing.T) {
	f := newFixture(t)
	path := write(t, f.dir, "car.json", carGoal)

	stdout, _, err := f.execute("project", "-f", path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Car (Equity Only, monthly steps, maturity 2027-01-01)")
	assert.Contains(t, stdout, "2025-01-01")
	assert.Contains(t, stdout, "2027-01-01")
	assert.Contains(t, stdout, "Terminal balance:  -$4,000.00")
	assert.Contains(t, stdout, "Surplus:           -$4,000.00")
}

func TestProject_JSON(t *testing.T) {
	f := newFixture(t)
	path := write(t, f.dir, "car.json", carGoal)

	stdout, _, err := f.execute("project", "-f", path, "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Goal       string `json:"goal"`
		Step       string `json:"step"`
		Surplus    string `json:"surplus_at_maturity"`
		Trajectory []struct {
			Date    string `json:"date"`
			Balance string `json:"balance"`
		} `json:"trajectory"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "Car", doc.Goal)
	assert.Equal(t, "monthly", doc.Step)
	assert.Equal(t, "-4000.00", doc.Surplus)
	require.Len(t, doc.Trajectory, 25) // today + 24 months
	assert.Equal(t, "2025-01-01", doc.Trajectory[0].Date)
	assert.Equal(t, "1000", doc.Trajectory[0].Balance)
	assert.Equal(t, "-4000", doc.Trajectory[24].Balance)
}

func TestProject_RequiresFile(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.execute("project")
	assert.ErrorContains(t, err, "file")
}
