package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/warp/goal-engine/engine"
)

var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
)

// Table renders results as an aligned text table.
type Table struct {
	Columns  []Column
	Currency string

	// Styled enables colors: header, separator, and surplus sign.
	Styled bool
}

// NewTable returns a plain table with the default columns in USD.
func NewTable() *Table {
	return &Table{Columns: ResultSchema, Currency: DefaultCurrency}
}

// Rows formats each result as one row of cells.
func (t *Table) Rows(results []*engine.GoalResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			row[i] = t.cell(r, c)
		}
		rows = append(rows, row)
	}
	return rows
}

func (t *Table) cell(r *engine.GoalResult, c Column) string {
	v := Value(r, c.Key)
	switch c.Kind {
	case KindMoney:
		d, _ := v.(decimal.Decimal)
		s := Money(d, t.Currency)
		if t.Styled && c.Key == KeySurplusAtMaturity {
			if d.IsNegative() {
				return StyleRed.Render(s)
			}
			return StyleGreen.Render(s)
		}
		return s
	case KindPercent:
		switch p := v.(type) {
		case float64:
			return Percent(p)
		case decimal.Decimal:
			return Ratio(p)
		}
	}
	s, _ := v.(string)
	return s
}

// Render returns the table for results. The recurring contribution header
// follows the frequency of the first result.
func (t *Table) Render(results []*engine.GoalResult) string {
	var freq engine.Frequency
	if len(results) > 0 {
		freq = results[0].RecurringFrequency
	}
	return t.render(Headers(t.Columns, freq), t.Rows(results))
}

// render pads every column to its widest cell, measuring visible width so
// styled cells align.
func (t *Table) render(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	const colGap = 2
	var b strings.Builder

	for i, h := range headers {
		cell := h
		if t.Styled {
			cell = StyleHeader.Render(h)
		}
		b.WriteString(cell)
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(h)+colGap))
		}
	}
	b.WriteString("\n")

	for i, w := range widths {
		line := strings.Repeat("─", w)
		if t.Styled {
			line = StyleDim.Render(line)
		}
		b.WriteString(line)
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(cell)
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Record maps column labels to formatted cells, for JSON output.
func (t *Table) Record(r *engine.GoalResult) map[string]string {
	out := make(map[string]string, len(t.Columns))
	headers := Headers(t.Columns, r.RecurringFrequency)
	for i, c := range t.Columns {
		out[headers[i]] = t.cell(r, c)
	}
	return out
}
