package measure

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/internal/common"
	"github.com/dtnitsch/perf-budget/models"
	"github.com/dtnitsch/perf-budget/pkg/artifact"
	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/classifier"
	"github.com/dtnitsch/perf-budget/pkg/db"
	"github.com/dtnitsch/perf-budget/pkg/report"
	"github.com/dtnitsch/perf-budget/pkg/session"
	"github.com/dtnitsch/perf-budget/pkg/storage"
)

func MeasureAction(c *cli.Context) error {
	logger, closeLog := common.NewLogger(c)
	defer closeLog()

	if c.NArg() == 0 {
		return cli.Exit("Error: no paths given. Usage: perf-budget measure [flags] PATH...", common.ExitFatal)
	}

	cfg, err := common.RunConfig(c)
	if err != nil {
		return common.Fatal(logger, "invalid configuration", err)
	}

	src, err := artifact.NewSource(c.Args().Slice(), c.StringSlice("exclude"), c.App.Reader, logger)
	if err != nil {
		return common.Fatal(logger, "invalid arguments", err)
	}

	r := &runner{
		cfg:           cfg,
		src:           src,
		paths:         c.Args().Slice(),
		out:           c.App.Writer,
		logger:        logger,
		top:           c.Int("top"),
		compressed:    c.Bool("compressed"),
		failOnOverrun: c.Bool("fail-on-overrun"),
	}
	if !c.Bool("no-history") {
		r.dbPath = c.String("db")
	}

	if c.Bool("watch") {
		return r.watch(c.Context, c.Duration("debounce"))
	}
	return r.once()
}

// runner holds everything one measuring pass needs. Each pass gets its own
// session, report writer and report.
type runner struct {
	cfg    models.Config
	src    *artifact.Source
	paths  []string
	out    io.Writer
	logger *slog.Logger

	dbPath        string // empty disables history
	top           int
	compressed    bool
	failOnOverrun bool
}

func (r *runner) once() error {
	w := report.NewWriter(r.cfg.Dest, &storage.Storage{}, r.logger)
	s, err := session.New(r.cfg, w, r.logger)
	if err != nil {
		_ = w.Close() // Nothing was submitted
		return common.Fatal(r.logger, "invalid budget", err)
	}

	var cs *compressedSizes
	if r.compressed {
		if cs, err = newCompressedSizes(); err != nil {
			s.Abort()
			return common.Fatal(r.logger, "measure failed", err)
		}
		defer cs.close()
	}

	own := r.ownOutputs()
	hashes := make(map[string]string)
	walkErr := r.src.Walk(func(a artifact.Artifact) error {
		if own[absPath(a.Path)] {
			return nil
		}
		if !a.IsNull() && !a.IsStream() {
			hashes[a.Path] = common.ContentHash(a.Contents)
			if cs != nil {
				cs.add(classifier.Classify(a.Path, a.Contents), a.Contents)
			}
		}
		return s.Process(a)
	})
	if walkErr != nil {
		s.Abort()
		if errors.Is(walkErr, session.ErrStreamingNotSupported) {
			return common.Fatal(r.logger, "unsupported input", walkErr)
		}
		return common.Fatal(r.logger, "measure failed", walkErr)
	}

	rep, err := s.Finish()
	if err != nil {
		return common.Fatal(r.logger, "failed to write report", err)
	}
	r.logger.Info("report written", "dest", w.Dest(), "files", s.Processed(), "skipped", s.Skipped(),
		"unreadable", r.src.Unreadable(), "writes", w.Writes())

	var runID int64
	if r.dbPath != "" {
		runID = recordHistory(r.dbPath, w.Dest(), rep, hashes, r.logger)
	}

	var compressed map[string]int64
	if cs != nil {
		compressed = cs.byCategory
	}
	PrintSummary(r.out, rep, w.Dest(), r.top, compressed)
	if n := r.src.Unreadable(); n > 0 {
		fmt.Fprintf(r.out, "\nSkipped %d unreadable artifact(s); see the log for paths\n", n)
	}
	if runID > 0 {
		fmt.Fprintf(r.out, "\nRecorded as run %d. Tip: Use 'perf-budget history compare %d <id>' to diff runs\n", runID, runID)
	}

	if r.failOnOverrun && rep.RemainingBudget != nil {
		if overruns := rep.RemainingBudget.Overruns(); len(overruns) > 0 {
			return cli.Exit("Over budget: "+describeOverruns(overruns), common.ExitOverBudget)
		}
	}
	return nil
}

// recordHistory stores the run. Failures are logged, never fatal.
func recordHistory(dbPath, dest string, r *report.Report, hashes map[string]string, logger *slog.Logger) int64 {
	database, err := db.Open(dbPath)
	if err != nil {
		logger.Warn("failed to open history database", "path", dbPath, "error", err)
		return 0
	}
	defer database.Close()

	runID, err := database.InsertRun(db.RunRecord{Dest: dest, Report: r, Hashes: hashes})
	if err != nil {
		logger.Warn("failed to record run", "path", database.Path(), "error", err)
		return 0
	}
	logger.Debug("run recorded", "run_id", runID, "path", database.Path())
	return runID
}

func describeOverruns(overruns []budget.Overrun) string {
	parts := make([]string, len(overruns))
	for i, o := range overruns {
		parts[i] = fmt.Sprintf("%s by %s", o.Field, budget.Format(o.By))
	}
	return strings.Join(parts, ", ")
}

// Flags are the flags MeasureAction reads.
func Flags() []cli.Flag {
	return append(common.BudgetFlags(),
		&cli.StringFlag{
			Name:    "dest",
			Aliases: []string{"o"},
			Value:   report.DefaultDest,
			Usage:   "Report path (.json, .yaml or .yml)",
			EnvVars: []string{"PERF_BUDGET_DEST"},
		},
		&cli.StringFlag{Name: "write-mode", Usage: "When to write the report: through (every artifact) or final"},
		&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"x"}, Usage: "Glob of files or directories to skip (repeatable)"},
		&cli.IntFlag{Name: "top", Value: 10, Usage: "Number of largest files to list (0 disables)"},
		&cli.BoolFlag{Name: "fail-on-overrun", Usage: "Exit with status 1 when any budget is exceeded"},
		&cli.StringFlag{
			Name:    "db",
			Value:   db.DefaultDBName,
			Usage:   "Run history database",
			EnvVars: []string{"PERF_BUDGET_DB"},
		},
		&cli.BoolFlag{Name: "no-history", Usage: "Do not record this run"},
		&cli.BoolFlag{Name: "compressed", Usage: "Estimate compressed (zstd) size per category"},
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Measure again whenever a file under PATH changes"},
		&cli.DurationFlag{Name: "debounce", Value: 300 * time.Millisecond, Usage: "Quiet period before a watch re-run"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
		&cli.BoolFlag{Name: "verbose", Usage: "Log every artifact"},
	)
}
