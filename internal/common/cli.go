package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/models"
	"github.com/dtnitsch/perf-budget/pkg/budget"
)

// Exit codes shared by all commands.
const (
	ExitOverBudget = 1
	ExitFatal      = 2
)

// budgetFlags maps CLI flag names to the budget field they override.
var budgetFlags = []struct {
	name  string
	field func(*budget.Config) **budget.Size
}{
	{"budget-total", func(c *budget.Config) **budget.Size { return &c.Total }},
	{"budget-css", func(c *budget.Config) **budget.Size { return &c.CSS }},
	{"budget-images", func(c *budget.Config) **budget.Size { return &c.Images }},
	{"budget-js", func(c *budget.Config) **budget.Size { return &c.JS }},
	{"budget-fonts", func(c *budget.Config) **budget.Size { return &c.Fonts }},
}

// NewLogger returns the JSON stderr logger; --quiet keeps errors only. With
// --log-file the same records also go to a size-rotated file. Call the returned
// func to close the file.
func NewLogger(c *cli.Context) (*slog.Logger, func()) {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	closeLog := func() {}
	if path := c.String("log-file"); path != "" {
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(os.Stderr, lj)
		closeLog = func() { _ = lj.Close() }
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: logLevel})), closeLog
}

// Fatal logs err and returns the exit error for a fatal failure.
func Fatal(logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, "error", err)
	return cli.Exit(fmt.Sprintf("Error: %s: %v", msg, err), ExitFatal)
}

// RunConfig loads --config when given and layers the dest, write-mode and
// budget flags on top.
func RunConfig(c *cli.Context) (models.Config, error) {
	cfg := models.Default()
	if path := c.String("config"); path != "" {
		loaded, err := models.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("dest") && c.String("dest") != "" {
		cfg.Dest = c.String("dest")
	}
	if c.IsSet("write-mode") {
		mode, err := models.ParseWriteMode(c.String("write-mode"))
		if err != nil {
			return cfg, err
		}
		cfg.WriteMode = mode
	}

	var over budget.Config
	for _, f := range budgetFlags {
		if !c.IsSet(f.name) {
			continue
		}
		size, err := budget.ParseSize(c.String(f.name))
		if err != nil {
			return cfg, fmt.Errorf("invalid --%s: %w", f.name, err)
		}
		*f.field(&over) = size.Ptr()
	}
	cfg.Budget = cfg.Budget.Merge(over)

	return cfg, nil
}

// BudgetFlags are the flags read by RunConfig, shared by measure and budget.
func BudgetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (.yaml, .json, .jsonc or .toml)",
			EnvVars: []string{"PERF_BUDGET_CONFIG"},
		},
		&cli.StringFlag{Name: "budget-total", Usage: "Total budget, bytes or humanized (e.g. 1.4MB)"},
		&cli.StringFlag{Name: "budget-css", Usage: "Stylesheet budget"},
		&cli.StringFlag{Name: "budget-images", Usage: "Image budget"},
		&cli.StringFlag{Name: "budget-js", Usage: "Script budget"},
		&cli.StringFlag{Name: "budget-fonts", Usage: "Font budget"},
	}
}
