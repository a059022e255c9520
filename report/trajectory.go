package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/goal-engine/engine"
)

// Trajectory column headers.
var TrajectoryHeaders = []string{"Date", "Net Cash Flow", "Period Return", "Balance"}

// TrajectoryRows formats one row per trajectory point.
func (t *Table) TrajectoryRows(points []engine.TrajectoryPoint) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		balance := Money(p.Balance, t.Currency)
		if t.Styled && p.Balance.IsNegative() {
			balance = StyleRed.Render(balance)
		}
		rows = append(rows, []string{
			p.Date.String(),
			Money(p.NetCashFlow, t.Currency),
			Percent(p.PeriodReturn),
			balance,
		})
	}
	return rows
}

// RenderTrajectory returns the period-by-period table of a projection
// followed by its terminal figures.
func (t *Table) RenderTrajectory(res *engine.ProjectionResult) string {
	out := t.render(TrajectoryHeaders, t.TrajectoryRows(res.Trajectory))
	out += fmt.Sprintf("\nTerminal balance:  %s\n", Money(res.TerminalBalance, t.Currency))
	if !res.UnmetLiabilities.IsZero() {
		out += fmt.Sprintf("Unmet liabilities: %s\n", Money(res.UnmetLiabilities, t.Currency))
	}
	out += fmt.Sprintf("Surplus:           %s\n", Money(res.SurplusAtMaturity, t.Currency))
	return out
}

// TrajectoryRecord is the serialized form of one trajectory point, with money
// rounded for display. The engine keeps full precision between steps.
type TrajectoryRecord struct {
	Date         engine.Date     `json:"date"`
	Balance      decimal.Decimal `json:"balance"`
	NetCashFlow  decimal.Decimal `json:"net_cash_flow"`
	PeriodReturn float64         `json:"period_return"`
}

// TrajectoryRecords rounds every point to precision decimal places.
// engine.NoRounding keeps the engine's values.
func TrajectoryRecords(points []engine.TrajectoryPoint, precision int32) []TrajectoryRecord {
	records := make([]TrajectoryRecord, len(points))
	for i, p := range points {
		records[i] = TrajectoryRecord{
			Date:         p.Date,
			Balance:      RoundMoney(p.Balance, precision),
			NetCashFlow:  RoundMoney(p.NetCashFlow, precision),
			PeriodReturn: p.PeriodReturn,
		}
	}
	return records
}

// RoundMoney rounds d half away from zero, or returns it as is for
// engine.NoRounding.
func RoundMoney(d decimal.Decimal, precision int32) decimal.Decimal {
	if precision == engine.NoRounding {
		return d
	}
	return d.Round(precision)
}
