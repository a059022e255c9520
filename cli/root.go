// Package cli implements the ldi command line.
package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/goal-engine/engine"
)

// App holds the collaborators used by CLI commands.
type App struct {
	Evaluator *engine.Evaluator

	// Runs records every batch run when set.
	Runs engine.RunStore

	// Styled enables colored tables (set when stdout is a terminal).
	Styled bool

	// Now returns the wall clock; "today" defaults to its date.
	Now func() time.Time
}

// NewRootCmd creates the top-level "ldi" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Evaluator == nil {
		app.Evaluator = engine.NewEvaluator()
	}
	if app.Now == nil {
		app.Now = time.Now
	}

	var verbose bool
	root := &cobra.Command{
		Use:           "ldi",
		Short:         "Goal funding engine: project goals and solve required contributions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each goal evaluation to stderr")

	root.AddCommand(
		newRunCmd(app, &verbose),
		newProjectCmd(app),
	)
	return root
}

// newLogger returns a debug-level text logger on w, or nil when not verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (app *App) today(flag string) (engine.Date, error) {
	if flag != "" {
		return engine.ParseDate(flag)
	}
	now := app.Now()
	return engine.NewDate(now.Year(), now.Month(), now.Day()), nil
}
