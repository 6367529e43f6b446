package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/internal/common"
	"github.com/dtnitsch/perf-budget/pkg/budget"
	dbpkg "github.com/dtnitsch/perf-budget/pkg/db"
)

const timeLayout = "2006-01-02 15:04:05"

func openDB(c *cli.Context) (*dbpkg.DB, error) {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: failed to open database: %v", err), common.ExitFatal)
	}
	return database, nil
}

func RunsAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-7s %-12s %-12s %-6s %s\n",
		"ID", "Created", "Files", "Total", "Budget", "Over", "Report")
	fmt.Fprintln(out, strings.Repeat("-", 100))

	for _, r := range runs {
		over := "no"
		if r.OverBudget {
			over = "YES"
		}
		fmt.Fprintf(out, "%-6d %-20s %-7d %-12s %-12s %-6s %s\n",
			r.RunID,
			r.CreatedAt.Format(timeLayout),
			r.FileCount,
			budget.Format(r.Totals.TotalSize),
			budget.Format(r.Budget.Total),
			over,
			r.Dest,
		)
	}

	fmt.Fprintf(out, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(out, "\nTip: Use 'perf-budget history show <id>' to see details\n")

	return nil
}

// ShowAction shows details for a specific run
func ShowAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	categories, err := database.GetRunCategories(runID)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Run %d\n", run.RunID)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Created:     %s\n", run.CreatedAt.Format(timeLayout))
	fmt.Fprintf(out, "Report:      %s\n", run.Dest)
	fmt.Fprintf(out, "Files:       %d (%s)\n", run.FileCount, budget.Format(run.Totals.TotalSize))

	fmt.Fprintf(out, "\nCategories (%d):\n", len(categories))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, cat := range categories {
		name := cat.Category
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(out, "%-12s %-6d %-12s %d%%\n", name, cat.FileCount, budget.Format(cat.TotalSize), cat.Percentage)
	}

	rem := run.Remaining()
	fmt.Fprintf(out, "\nBudget:\n")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	rows := []struct {
		name        string
		limit, left int64
	}{
		{"total", run.Budget.Total, rem.Total},
		{"css", run.Budget.CSS, rem.CSS},
		{"images", run.Budget.Images, rem.Images},
		{"js", run.Budget.JS, rem.JS},
		{"fonts", run.Budget.Fonts, rem.Fonts},
	}
	for _, row := range rows {
		status := ""
		if row.left < 0 {
			status = "OVER"
		}
		fmt.Fprintf(out, "%-12s limit %-12s remaining %-12s %s\n", row.name,
			budget.Format(row.limit), budget.Format(row.left), status)
	}

	if c.Bool("files") {
		files, err := database.GetRunFiles(runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFiles (%d):\n", len(files))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, f := range files {
			hash := f.ContentHash.String
			if !f.ContentHash.Valid {
				hash = "(none)"
			}
			fmt.Fprintf(out, "%-8s %-12s %s %s\n", f.Category, budget.Format(f.SizeBytes), hash, f.Path)
		}
	}

	return nil
}

// CompareAction prints the size changes between two runs.
func CompareAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("Error: compare needs two run IDs. Usage: perf-budget history compare A B", common.ExitFatal)
	}
	fromID, err := ParseRunID(c.Args().Get(0))
	if err != nil {
		return err
	}
	toID, err := ParseRunID(c.Args().Get(1))
	if err != nil {
		return err
	}

	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	from, err := loadSnapshot(database, fromID)
	if err != nil {
		return err
	}
	to, err := loadSnapshot(database, toID)
	if err != nil {
		return err
	}

	d := Diff(from, to)
	out := c.App.Writer

	fmt.Fprintf(out, "Run %d -> Run %d\n", fromID, toID)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "%-12s %-12s %-12s %s\n", "Category", "Before", "After", "Change")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintf(out, "%-12s %-12s %-12s %s\n", "total",
		budget.Format(from.Run.Totals.TotalSize), budget.Format(to.Run.Totals.TotalSize),
		common.FormatDelta(from.Run.Totals.TotalSize, to.Run.Totals.TotalSize))
	for _, cd := range d.Categories {
		name := cd.Category
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(out, "%-12s %-12s %-12s %s\n", name,
			budget.Format(cd.Before), budget.Format(cd.After), common.FormatDelta(cd.Before, cd.After))
	}

	printPaths := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		fmt.Fprintf(out, "\n%s (%d):\n", title, len(paths))
		for _, p := range paths {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	printPaths("Added", d.Added)
	printPaths("Removed", d.Removed)
	printPaths("Changed", d.Changed)

	return nil
}

// Snapshot is a run with its categories and files.
type Snapshot struct {
	Run        *dbpkg.Run
	Categories []dbpkg.RunCategory
	Files      []dbpkg.RunFile
}

func loadSnapshot(database *dbpkg.DB, runID int64) (Snapshot, error) {
	run, err := database.GetRun(runID)
	if err != nil {
		return Snapshot{}, err
	}
	categories, err := database.GetRunCategories(runID)
	if err != nil {
		return Snapshot{}, err
	}
	files, err := database.GetRunFiles(runID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Run: run, Categories: categories, Files: files}, nil
}

// CategoryDelta is one category's size in two runs.
type CategoryDelta struct {
	Category      string
	Before, After int64
}

// RunDiff summarizes how a later run differs from an earlier one.
type RunDiff struct {
	Categories []CategoryDelta
	Added      []string
	Removed    []string
	// Changed lists paths present in both runs whose content hash or size differs.
	Changed []string
}

// Diff compares two runs by category totals and by file path.
func Diff(from, to Snapshot) RunDiff {
	var d RunDiff

	sizes := make(map[string]*CategoryDelta)
	for _, c := range from.Categories {
		sizes[c.Category] = &CategoryDelta{Category: c.Category, Before: c.TotalSize}
	}
	for _, c := range to.Categories {
		cd, ok := sizes[c.Category]
		if !ok {
			cd = &CategoryDelta{Category: c.Category}
			sizes[c.Category] = cd
		}
		cd.After = c.TotalSize
	}
	for _, cd := range sizes {
		d.Categories = append(d.Categories, *cd)
	}
	sort.Slice(d.Categories, func(i, j int) bool {
		return d.Categories[i].Category < d.Categories[j].Category
	})

	before := indexFiles(from.Files)
	after := indexFiles(to.Files)
	for p, a := range after {
		b, ok := before[p]
		switch {
		case !ok:
			d.Added = append(d.Added, p)
		case b.SizeBytes != a.SizeBytes || b.ContentHash != a.ContentHash:
			d.Changed = append(d.Changed, p)
		}
	}
	for p := range before {
		if _, ok := after[p]; !ok {
			d.Removed = append(d.Removed, p)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)

	return d
}

// indexFiles keys files by path; a path recorded twice keeps its last entry.
func indexFiles(files []dbpkg.RunFile) map[string]dbpkg.RunFile {
	m := make(map[string]dbpkg.RunFile, len(files))
	for _, f := range files {
		m[f.Path] = f
	}
	return m
}
