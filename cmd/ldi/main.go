package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/warp/goal-engine/cli"
	"github.com/warp/goal-engine/engine"
	"github.com/warp/goal-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{
		Evaluator: engine.NewEvaluator(),
		Styled:    isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	// Record runs only when a database is configured.
	if dbPath := os.Getenv("LDI_DB"); dbPath != "" {
		store, err := sqlite.New(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()
		app.Runs = store
	}

	return cli.NewRootCmd(app).Execute()
}
