package factory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/factory"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// CONSTANTS
// =============================================================================

func TestConstants_WholePlaceholderKeepsType(t *testing.T) {
	c := factory.Constants{
		"tuition":  map[string]any{"annual": json.Number("25000"), "years": 4.0},
		"kid.name": "Ada",
	}

	doc := c.Resolve(map[string]any{
		"amount":    "${tuition.annual}",
		"years":     "${tuition.years}",
		"label":     "College for ${kid.name} (${tuition.years}y)",
		"unknown":   "${nope.missing}",
		"list":      []any{"${kid.name}", 3.0},
		"untouched": true,
	}).(map[string]any)

	assert.Equal(t, json.Number("25000"), doc["amount"])
	assert.Equal(t, 4.0, doc["years"])
	assert.Equal(t, "College for Ada (4y)", doc["label"])
	assert.Equal(t, "${nope.missing}", doc["unknown"])
	assert.Equal(t, []any{"Ada", 3.0}, doc["list"])
	assert.Equal(t, true, doc["untouched"])
}

func TestConstants_Lookup(t *testing.T) {
	c := factory.Constants{"a": map[string]any{"b": map[string]any{"c": "deep"}}}

	v, ok := c.Lookup("a.b.c")
	require.True(t, ok)
	assert.Equal(t, "deep", v)

	_, ok = c.Lookup("a.x")
	assert.False(t, ok)

	_, ok = factory.Constants{}.Lookup("a")
	assert.False(t, ok)
}

// =============================================================================
// FILES
// =============================================================================

func TestLoadGoalFile_JSONWithConstants(t *testing.T) {
	dir := t.TempDir()
	constantsPath := writeFile(t, dir, "constants.json", `{"tuition": {"annual": 25000, "start": "2035-09-01"}}`)
	goalPath := writeFile(t, dir, "college.json", `{
		"name": "College",
		"assets_today": 10000.50,
		"liabilities": [{"amount_today": "${tuition.annual}", "start_date": "${tuition.start}", "duration_years": 4}]
	}`)

	constants, err := factory.LoadConstants(constantsPath)
	require.NoError(t, err)

	gf, err := factory.LoadGoalFile(goalPath, constants)
	require.NoError(t, err)
	assert.Equal(t, goalPath, gf.Path)
	assert.Equal(t, "10000.5", gf.Goal.AssetsToday.String())

	rec := gf.Goal.Liabilities[0].(engine.RecurringLiability)
	assert.True(t, rec.AmountToday.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, "2035-09-01", rec.StartDate.String())
}

func TestLoadGoalFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "house.yaml", `
name: House
assets_today: 50000
maturity_date: 2032-01-01
allocation:
  type: equity_only
liabilities:
  - type: lump_sum
    amount_today: 120000
    date: 2031-06-01
contributions:
  - amount: 1500
    frequency: monthly
`)

	gf, err := factory.LoadGoalFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "House", gf.Goal.Name)
	assert.Equal(t, "2032-01-01", gf.Goal.Maturity.String())
	require.NotNil(t, gf.Strategy)
	assert.Equal(t, "Equity Only", gf.Strategy.Name())

	lump := gf.Goal.Liabilities[0].(engine.LumpSumLiability)
	assert.Equal(t, "2031-06-01", lump.Date.String())
	assert.True(t, lump.AmountToday.Equal(decimal.NewFromInt(120000)))
	require.Len(t, gf.Goal.Contributions, 1)
}

func TestLoadGoalFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := factory.LoadGoalFile(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.json", `{"name": "Bad", "assets_today": 1, "liabilities": [{"amount_today": 1}]}`)
	_, err = factory.LoadGoalFile(bad, nil)
	assert.ErrorIs(t, err, engine.ErrConfig)

	broken := writeFile(t, dir, "broken.yaml", "name: [unterminated")
	_, err = factory.LoadGoalFile(broken, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestLoadAssumptionsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "assumptions.yml", `
market:
  cpi_inflation: 0.03
  equity_expected_return: 0.07
  fixed_income_expected_return: 0.04
  cash_equivalent_expected_return: 0.02
  discount_rate: 0.04
`)
	a, err := factory.LoadAssumptionsFile(path, nil, today)
	require.NoError(t, err)
	assert.Equal(t, today, a.Today)
	assert.Equal(t, 0.07, a.ExpectedReturns[engine.Equity])
}

func TestLoadConstants_MissingFileIsEmpty(t *testing.T) {
	c, err := factory.LoadConstants(filepath.Join(t.TempDir(), "constants.json"))
	require.NoError(t, err)
	assert.Empty(t, c)

	c, err = factory.LoadConstants("")
	require.NoError(t, err)
	assert.Empty(t, c)
}

func TestDiscoverGoalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_house.yaml", "name: House")
	writeFile(t, dir, "a_college.json", "{}")
	writeFile(t, dir, "c_car.yml", "name: Car")
	writeFile(t, dir, "constants.json", "{}")
	writeFile(t, dir, "assumptions.yaml", "{}")
	writeFile(t, dir, "notes.txt", "ignore me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	files, err := factory.DiscoverGoalFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_college.json"),
		filepath.Join(dir, "b_house.yaml"),
		filepath.Join(dir, "c_car.yml"),
	}, files)

	_, err = factory.DiscoverGoalFiles(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}
