package measure

import (
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/perf-budget/internal/common"
	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/report"
)

const pathWidth = 50

// PrintSummary writes the category table, the budget table and the largest files.
// A non-nil compressed map adds an estimated compressed size column.
func PrintSummary(out io.Writer, r *report.Report, dest string, top int, compressed map[string]int64) {
	fmt.Fprintf(out, "Report: %s\n", dest)
	fmt.Fprintf(out, "Files:  %d (%s)\n\n", r.FileCount(), budget.Format(r.TotalSizes.TotalSize))

	if compressed != nil {
		fmt.Fprintf(out, "%-12s %-8s %-12s %-6s %s\n", "Category", "Files", "Size", "%", "Compressed")
		fmt.Fprintln(out, strings.Repeat("-", 54))
	} else {
		fmt.Fprintf(out, "%-12s %-8s %-12s %-6s\n", "Category", "Files", "Size", "%")
		fmt.Fprintln(out, strings.Repeat("-", 42))
	}
	for _, category := range r.Categories() {
		ft := r.FileTypes[category]
		name := category
		if name == "" {
			name = "(none)"
		}
		if compressed != nil {
			fmt.Fprintf(out, "%-12s %-8d %-12s %-6d %s\n", name, len(ft.Files), budget.Format(ft.Total), ft.Percentage,
				budget.Format(compressed[category]))
			continue
		}
		fmt.Fprintf(out, "%-12s %-8d %-12s %-6d\n", name, len(ft.Files), budget.Format(ft.Total), ft.Percentage)
	}

	if r.Budget != nil && r.RemainingBudget != nil {
		b, rem := r.Budget, r.RemainingBudget
		rows := []struct {
			name          string
			used, ceiling int64
			left          int64
		}{
			{"total", r.TotalSizes.TotalSize, b.Total, rem.Total},
			{"css", r.TotalSizes.CSS, b.CSS, rem.CSS},
			{"images", r.TotalSizes.Images, b.Images, rem.Images},
			{"js", r.TotalSizes.JS, b.JS, rem.JS},
			{"fonts", r.TotalSizes.Fonts, b.Fonts, rem.Fonts},
		}

		fmt.Fprintf(out, "\n%-12s %-12s %-12s %-12s %s\n", "Budget", "Used", "Limit", "Remaining", "Status")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, row := range rows {
			status := "ok"
			if row.left < 0 {
				status = "OVER"
			}
			fmt.Fprintf(out, "%-12s %-12s %-12s %-12s %s\n", row.name,
				budget.Format(row.used), budget.Format(row.ceiling), budget.Format(row.left), status)
		}
	}

	if top <= 0 {
		return
	}
	largest := r.Largest(top)
	if len(largest) == 0 {
		return
	}
	fmt.Fprintf(out, "\nLargest files (%d):\n", len(largest))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for i, f := range largest {
		fmt.Fprintf(out, "%2d. %-*s %-8s %s\n", i+1, pathWidth, common.TruncatePath(f.File, pathWidth), f.Category, budget.Format(f.Size))
	}
}
