package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/factory"
	"github.com/warp/goal-engine/report"
)

type projectOptions struct {
	inputOptions
	file     string
	format   string
	currency string
}

func newProjectCmd(app *App) *cobra.Command {
	opts := &projectOptions{}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show the period-by-period projection of one goal",
		Example: `  ldi project -f runs/college.json
  ldi project -f runs/retirement.yaml --today 2025-01-01 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.project(cmd, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.file, "file", "f", "", "Goal file")
	fs.StringVar(&opts.format, "format", "table", "Output format: table or json")
	fs.StringVar(&opts.currency, "currency", report.DefaultCurrency, "ISO 4217 currency code for display")
	opts.register(fs)
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// projectionJSON is the --format json document of "project".
type projectionJSON struct {
	Goal              string                    `json:"goal"`
	Maturity          engine.Date               `json:"maturity_date"`
	Step              engine.Frequency          `json:"step"`
	TerminalBalance   string                    `json:"terminal_balance"`
	UnmetLiabilities  string                    `json:"unmet_liabilities"`
	SurplusAtMaturity string                    `json:"surplus_at_maturity"`
	Trajectory        []report.TrajectoryRecord `json:"trajectory"`
}

func (app *App) project(cmd *cobra.Command, opts *projectOptions) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("--format must be table or json, got %q", opts.format)
	}
	in, err := opts.load(app)
	if err != nil {
		return err
	}
	gf, err := factory.LoadGoalFile(opts.file, in.constants)
	if err != nil {
		return err
	}
	strategy := gf.Strategy
	if strategy == nil {
		strategy = in.strategy
	}

	plan, err := app.Evaluator.Solver.Prepare(gf.Goal, in.assumptions, strategy)
	if err != nil {
		return err
	}
	res, err := plan.Baseline()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(projectionJSON{
			Goal:              gf.Goal.Name,
			Maturity:          plan.Maturity,
			Step:              res.Step,
			TerminalBalance:   res.TerminalBalance.StringFixed(engine.DefaultPrecision),
			UnmetLiabilities:  res.UnmetLiabilities.StringFixed(engine.DefaultPrecision),
			SurplusAtMaturity: res.SurplusAtMaturity.StringFixed(engine.DefaultPrecision),
			Trajectory:        report.TrajectoryRecords(res.Trajectory, engine.DefaultPrecision),
		})
	}

	fmt.Fprintf(out, "%s (%s, %s steps, maturity %s)\n\n", gf.Goal.Name, strategy.Name(), res.Step, plan.Maturity)
	table := &report.Table{Currency: opts.currency, Styled: app.Styled}
	fmt.Fprint(out, table.RenderTrajectory(res))
	return nil
}
