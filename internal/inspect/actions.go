package inspect

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/internal/common"
	"github.com/dtnitsch/perf-budget/pkg/artifact"
	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/classifier"
)

// ClassifyAction prints the category and size of every artifact under the given paths.
func ClassifyAction(c *cli.Context) error {
	logger, closeLog := common.NewLogger(c)
	defer closeLog()
	if c.NArg() == 0 {
		return cli.Exit("Error: no paths given. Usage: perf-budget classify PATH...", common.ExitFatal)
	}

	src, err := artifact.NewSource(c.Args().Slice(), c.StringSlice("exclude"), c.App.Reader, logger)
	if err != nil {
		return common.Fatal(logger, "invalid arguments", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "%-10s %-12s %s\n", "Category", "Size", "Path")
	fmt.Fprintln(out, strings.Repeat("-", 60))

	err = src.Walk(func(a artifact.Artifact) error {
		switch {
		case a.IsNull():
			return nil
		case a.IsStream():
			fmt.Fprintf(out, "%-10s %-12s %s\n", "(stream)", "-", a.Path)
			return nil
		}
		category := classifier.Classify(a.Path, a.Contents)
		if category == "" {
			category = "(none)"
		}
		fmt.Fprintf(out, "%-10s %-12s %s\n", category, budget.Format(a.SizeBytes()), a.Path)
		return nil
	})
	if err != nil {
		return common.Fatal(logger, "classify failed", err)
	}
	return nil
}

// BudgetAction resolves the budget from config and flags and prints it.
func BudgetAction(c *cli.Context) error {
	logger, closeLog := common.NewLogger(c)
	defer closeLog()

	cfg, err := common.RunConfig(c)
	if err != nil {
		return common.Fatal(logger, "invalid configuration", err)
	}
	b, err := budget.Resolve(cfg.Budget)
	if err != nil {
		return common.Fatal(logger, "invalid budget", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "%-10s %-12s %s\n", "Budget", "Size", "Bytes")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	rows := []struct {
		name  string
		value int64
	}{
		{"total", b.Total},
		{"css", b.CSS},
		{"images", b.Images},
		{"js", b.JS},
		{"fonts", b.Fonts},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-10s %-12s %d\n", row.name, budget.Format(row.value), row.value)
	}
	fmt.Fprintf(out, "\nUnallocated: %s\n", budget.Format(b.Total-b.CategorySum()))
	return nil
}
