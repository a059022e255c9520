package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/factory"
	"github.com/warp/goal-engine/report"
)

// ErrGoalsFailed is returned by "run" when at least one goal failed.
var ErrGoalsFailed = errors.New("one or more goals failed")

// inputOptions are the flags shared by every command that loads goals.
type inputOptions struct {
	constants   string
	assumptions string
	allocation  string
	today       string
}

func (o *inputOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.constants, "constants", "c", "runs/constants.json", "Constants file for ${...} placeholders (optional)")
	fs.StringVar(&o.assumptions, "assumptions", "runs/assumptions.json", "Market assumptions file")
	fs.StringVar(&o.allocation, "allocation", factory.AllocGlidePath, "Default allocation strategy: glide_path or equity_only")
	fs.StringVar(&o.today, "today", "", "Valuation date YYYY-MM-DD (default: current date)")
}

// inputs is everything a command needs besides the goal files.
type inputs struct {
	constants   factory.Constants
	assumptions engine.Assumptions
	strategy    engine.AllocationStrategy
}

func (o *inputOptions) load(app *App) (*inputs, error) {
	today, err := app.today(o.today)
	if err != nil {
		return nil, fmt.Errorf("--today: %w", err)
	}
	constants, err := factory.LoadConstants(o.constants)
	if err != nil {
		return nil, err
	}
	a, err := factory.LoadAssumptionsFile(o.assumptions, constants, today)
	if err != nil {
		return nil, err
	}
	strategy, err := factory.Allocation(o.allocation)
	if err != nil {
		return nil, fmt.Errorf("--allocation: %w", err)
	}
	return &inputs{constants: constants, assumptions: a, strategy: strategy}, nil
}

// =============================================================================
// RUN
// =============================================================================

type runOptions struct {
	inputOptions
	files    []string
	all      bool
	dir      string
	workers  int
	format   string
	currency string
	detail   bool
}

func newRunCmd(app *App, verbose *bool) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate one or more goal files",
		Example: `  ldi run -f runs/college.json
  ldi run --all --dir runs --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, opts, *verbose)
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&opts.files, "file", "f", nil, "Goal file (repeatable)")
	fs.BoolVarP(&opts.all, "all", "a", false, "Run every goal file in --dir")
	fs.StringVarP(&opts.dir, "dir", "d", "runs", "Folder containing goal files")
	fs.IntVar(&opts.workers, "workers", 0, "Parallel workers (default: number of CPUs)")
	fs.StringVar(&opts.format, "format", "table", "Output format: table or json")
	fs.StringVar(&opts.currency, "currency", report.DefaultCurrency, "ISO 4217 currency code for display")
	fs.BoolVar(&opts.detail, "detail", false, "Add maturity, liabilities PV and funding ratio columns")
	opts.register(fs)

	return cmd
}

// runEntry ties a goal file to its batch outcome.
type runEntry struct {
	path    string
	goal    string
	loadErr error
	slot    int // index into the runner's scenarios, -1 when loading failed
}

func (app *App) run(cmd *cobra.Command, opts *runOptions, verbose bool) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("--format must be table or json, got %q", opts.format)
	}

	files, err := goalFiles(opts)
	if err != nil {
		return err
	}

	in, err := opts.load(app)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	entries := make([]runEntry, len(files))
	var scenarios []engine.Scenario
	for i, path := range files {
		fmt.Fprintf(stderr, "Running goal: %s\n", path)
		entries[i] = runEntry{path: path, slot: -1}

		gf, err := factory.LoadGoalFile(path, in.constants)
		if err != nil {
			entries[i].loadErr = err
			continue
		}
		strategy := gf.Strategy
		if strategy == nil {
			strategy = in.strategy
		}
		entries[i].goal = gf.Goal.Name
		entries[i].slot = len(scenarios)
		scenarios = append(scenarios, engine.Scenario{Goal: gf.Goal, Strategy: strategy})
	}

	runner := &engine.Runner{
		Evaluator: app.Evaluator,
		Workers:   opts.workers,
		Logger:    newLogger(stderr, verbose),
	}
	outcomes := runner.Run(cmd.Context(), in.assumptions, scenarios)

	// one outcome per file, in file order
	all := make([]engine.Outcome, len(entries))
	for i, e := range entries {
		if e.slot < 0 {
			all[i] = engine.Outcome{Name: e.path, Err: e.loadErr}
			continue
		}
		all[i] = outcomes[e.slot]
	}

	run := engine.NewRun(uuid.NewString(), app.Now().UTC(), in.assumptions.Today, all)
	if app.Runs != nil {
		if err := app.Runs.SaveRun(cmd.Context(), run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	columns := report.ResultSchema
	if opts.detail {
		columns = report.DetailSchema
	}
	table := &report.Table{Columns: columns, Currency: opts.currency, Styled: app.Styled && opts.format == "table"}

	var results []*engine.GoalResult
	for _, o := range all {
		if o.Result != nil {
			results = append(results, o.Result)
		}
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		if err := writeRunJSON(out, run, entries, table); err != nil {
			return err
		}
	} else if len(results) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, table.Render(results))
	}

	failed := 0
	for i, o := range all {
		if o.Err == nil {
			continue
		}
		failed++
		fmt.Fprintf(stderr, "FAILED %s: %v\n", entries[i].path, o.Err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(all), ErrGoalsFailed)
	}
	return nil
}

func goalFiles(opts *runOptions) ([]string, error) {
	if opts.all {
		files, err := factory.DiscoverGoalFiles(opts.dir)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no goal files found in %s", opts.dir)
		}
		return files, nil
	}
	if len(opts.files) == 0 {
		return nil, errors.New("specify --file or --all")
	}
	return opts.files, nil
}

// runJSON is the --format json document.
type runJSON struct {
	RunID   string          `json:"run_id"`
	Today   engine.Date     `json:"today"`
	Results []runResultJSON `json:"results"`
}

type runResultJSON struct {
	File    string             `json:"file"`
	Goal    string             `json:"goal,omitempty"`
	Result  *engine.GoalResult `json:"result,omitempty"`
	Display map[string]string  `json:"display,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func writeRunJSON(w io.Writer, run engine.Run, entries []runEntry, table *report.Table) error {
	doc := runJSON{RunID: run.ID, Today: run.Today, Results: make([]runResultJSON, len(entries))}
	for i, o := range run.Outcomes {
		r := runResultJSON{File: entries[i].path, Goal: entries[i].goal, Result: o.Result, Error: o.Error}
		if o.Result != nil {
			r.Display = table.Record(o.Result)
		}
		doc.Results[i] = r
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
