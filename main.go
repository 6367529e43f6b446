package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/internal/common"
	"github.com/dtnitsch/perf-budget/internal/history"
	"github.com/dtnitsch/perf-budget/internal/inspect"
	"github.com/dtnitsch/perf-budget/internal/measure"
	"github.com/dtnitsch/perf-budget/pkg/db"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newApp() *cli.App {
	dbFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "db",
			Value:   db.DefaultDBName,
			Usage:   "Run history database",
			EnvVars: []string{"PERF_BUDGET_DB"},
		}
	}
	quietFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"}
	}

	return &cli.App{
		Name:    "perf-budget",
		Usage:   "Measure build artifacts against a size budget",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write JSON logs to this file, rotated at 10 MB",
				EnvVars: []string{"PERF_BUDGET_LOG_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "measure",
				Aliases:   []string{"m"},
				Usage:     "Classify and size artifacts, write the budget report",
				ArgsUsage: "PATH... (use - for stdin)",
				Flags:     measure.Flags(),
				Action:    measure.MeasureAction,
			},
			{
				Name:      "classify",
				Usage:     "Print the category of each artifact",
				ArgsUsage: "PATH...",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Glob of files or directories to skip"},
					quietFlag(),
				},
				Action: inspect.ClassifyAction,
			},
			{
				Name:   "budget",
				Usage:  "Print the resolved budget or the configuration error",
				Flags:  append(common.BudgetFlags(), quietFlag()),
				Action: inspect.BudgetAction,
			},
			{
				Name:  "history",
				Usage: "Inspect recorded runs",
				Subcommands: []*cli.Command{
					{
						Name:  "runs",
						Usage: "List recent runs",
						Flags: []cli.Flag{
							dbFlag(),
							&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum runs to list (0 for all)"},
						},
						Action: history.RunsAction,
					},
					{
						Name:      "show",
						Usage:     "Show one run (latest when ID is omitted)",
						ArgsUsage: "[ID]",
						Flags: []cli.Flag{
							dbFlag(),
							&cli.BoolFlag{Name: "files", Usage: "List every recorded file"},
						},
						Action: history.ShowAction,
					},
					{
						Name:      "compare",
						Usage:     "Diff two runs by category and file",
						ArgsUsage: "A B",
						Flags:     []cli.Flag{dbFlag()},
						Action:    history.CompareAction,
					},
				},
			},
		},
	}
}
