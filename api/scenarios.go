/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:

	Provides pre-built goal batches that exercise the engine end to end:
	each scenario is a set of goal documents and a market regime, evaluated
	and recorded like any POST /api/evaluate.

AVAILABLE SCENARIOS:

	college:      One child, four years of tuition, monthly savings
	retirement:   Twenty-five years of income from a 401k-style pot
	family:       College, house deposit and retirement side by side
	due-now:      Liability due today (recurring solve is rejected)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "family"}

ADDING NEW SCENARIOS:
 1. Add goal JSON constants
 2. Add an entry to 'scenarios' with ID, name, description

SEE ALSO:
  - handlers.go: runBatch, shared with POST /api/evaluate
  - factory/goal.go: goal JSON schema
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/goal-engine/factory"
)

// Scenario is a named batch of goal documents.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Assumptions string
	Allocation  string
	Goals       []string
}

const demoMarket = `{
	"market": {
		"cpi_inflation": 0.03,
		"equity_expected_return": 0.07,
		"fixed_income_expected_return": 0.04,
		"cash_equivalent_expected_return": 0.02,
		"discount_rate": 0.04
	}
}`

const collegeGoal = `{
	"name": "College Savings",
	"assets_today": 10000,
	"liabilities": [
		{"amount_today": 25000, "start_date": "2040-09-01", "duration_years": 4}
	],
	"deposit": {"monthly": 200}
}`

const retirementGoal = `{
	"name": "Retirement",
	"assets_today": 150000,
	"allocation": {"type": "glide_path", "horizon_years": 20},
	"liabilities": [
		{"amount_today": 60000, "start_date": "2055-01-01", "duration_years": 25, "frequency": "monthly"}
	],
	"contributions": [
		{"amount": 1500, "frequency": "monthly", "end_date": "2055-01-01"}
	]
}`

const houseGoal = `{
	"name": "House Deposit",
	"assets_today": 20000,
	"allocation": {"type": "fixed", "mix": {"fixed_income": 0.7, "cash_equivalent": 0.3}},
	"liabilities": [
		{"type": "lump_sum", "amount_today": 80000, "date": "2030-06-01", "inflation_rate": 0.05}
	]
}`

const dueNowGoal = `{
	"name": "Due Now",
	"assets_today": 1000,
	"maturity_date": "${today}",
	"liabilities": [
		{"type": "lump_sum", "amount_today": 5000, "date": "${today}"}
	]
}`

var scenarios = []Scenario{
	{
		ID:          "college",
		Name:        "College",
		Description: "Four years of tuition starting 2040, saving 200 a month",
		Assumptions: demoMarket,
		Goals:       []string{collegeGoal},
	},
	{
		ID:          "retirement",
		Name:        "Retirement",
		Description: "Monthly income for 25 years from 2055 on a 20-year glide path",
		Assumptions: demoMarket,
		Goals:       []string{retirementGoal},
	},
	{
		ID:          "family",
		Name:        "Family",
		Description: "College, house deposit and retirement evaluated in one run",
		Assumptions: demoMarket,
		Goals:       []string{collegeGoal, houseGoal, retirementGoal},
	},
	{
		ID:          "due-now",
		Name:        "Due Now",
		Description: "A liability due today: no recurring contribution can fund it",
		Assumptions: demoMarket,
		Allocation:  factory.AllocEquityOnly,
		Goals:       []string{dueNowGoal},
	},
}

func findScenario(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ListScenarios returns all demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description, Goals: len(s.Goals)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario evaluates a demo scenario and records it as a run.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	doc, err := h.scenarioRequest(s)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Invalid scenario", err)
		return
	}
	a, strategy, err := h.inputs(doc.Assumptions, doc.Allocation)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	batch := make([]batchGoal, len(doc.Goals))
	for i, gj := range doc.Goals {
		batch[i] = newBatchGoal(gj, strategy)
	}

	resp, err := h.runBatch(r.Context(), a, batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record run", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// scenarioRequest decodes a scenario into an EvaluateRequest. "${today}"
// placeholders take the handler's current date.
func (h *Handler) scenarioRequest(s Scenario) (*EvaluateRequest, error) {
	constants := factory.Constants{"today": h.today().String()}

	var req EvaluateRequest
	if err := decodeResolved(s.Assumptions, constants, &req.Assumptions); err != nil {
		return nil, fmt.Errorf("scenario %s assumptions: %w", s.ID, err)
	}
	if s.Allocation != "" {
		req.Allocation = &factory.AllocationJSON{Type: s.Allocation}
	}
	req.Goals = make([]factory.GoalJSON, len(s.Goals))
	for i, doc := range s.Goals {
		if err := decodeResolved(doc, constants, &req.Goals[i]); err != nil {
			return nil, fmt.Errorf("scenario %s goal %d: %w", s.ID, i, err)
		}
	}
	return &req, nil
}

func decodeResolved(doc string, constants factory.Constants, out any) error {
	tree, err := factory.DecodeDocument([]byte(doc), ".json")
	if err != nil {
		return err
	}
	data, err := json.Marshal(constants.Resolve(tree))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
