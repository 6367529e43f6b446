package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/models"
	"github.com/dtnitsch/perf-budget/pkg/budget"
)

func runConfigFrom(t *testing.T, args ...string) (models.Config, error) {
	t.Helper()
	var cfg models.Config
	var cfgErr error
	app := &cli.App{
		Name: "test",
		Flags: append(BudgetFlags(),
			&cli.StringFlag{Name: "dest"},
			&cli.StringFlag{Name: "write-mode"},
		),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = RunConfig(c)
			return nil
		},
	}
	if err := app.Run(append([]string{"test"}, args...)); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return cfg, cfgErr
}

func TestRunConfig_Defaults(t *testing.T) {
	t.Setenv("PERF_BUDGET_CONFIG", "")
	cfg, err := runConfigFrom(t)
	if err != nil {
		t.Fatalf("RunConfig() error = %v", err)
	}
	if cfg != models.Default() {
		t.Errorf("RunConfig() = %+v, want defaults", cfg)
	}
}

func TestRunConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf-budget.yaml")
	content := "dest: from-file.json\nbudget:\n  total: 5000\n  css: 100\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := runConfigFrom(t, "--config", path, "--budget-css", "1kB", "--write-mode", "final")
	if err != nil {
		t.Fatalf("RunConfig() error = %v", err)
	}
	if cfg.Dest != "from-file.json" {
		t.Errorf("Dest = %q, want the file value", cfg.Dest)
	}
	if cfg.WriteMode != models.WriteFinal {
		t.Errorf("WriteMode = %q", cfg.WriteMode)
	}

	b, err := budget.Resolve(cfg.Budget)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := budget.Budget{Total: 5000, CSS: 1000, Images: 600, JS: 200, Fonts: 300}
	if b != want {
		t.Errorf("budget = %+v, want %+v", b, want)
	}
}

func TestRunConfig_EnvConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf-budget.json")
	if err := os.WriteFile(path, []byte(`{"dest": "env.json"}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PERF_BUDGET_CONFIG", path)

	cfg, err := runConfigFrom(t, "--dest", "flag.json")
	if err != nil {
		t.Fatalf("RunConfig() error = %v", err)
	}
	if cfg.Dest != "flag.json" {
		t.Errorf("Dest = %q, want flag.json", cfg.Dest)
	}
}

func TestRunConfig_Errors(t *testing.T) {
	t.Setenv("PERF_BUDGET_CONFIG", "")
	tests := []struct {
		name string
		args []string
	}{
		{"bad size", []string{"--budget-js", "a lot"}},
		{"bad write mode", []string{"--write-mode", "sometimes"}},
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runConfigFrom(t, tt.args...); err == nil {
				t.Error("RunConfig() error = nil, want error")
			}
		})
	}
}

func TestNewLogger_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "perf-budget.log")
	app := &cli.App{
		Name:  "test",
		Flags: []cli.Flag{&cli.StringFlag{Name: "log-file"}, &cli.BoolFlag{Name: "quiet"}},
		Action: func(c *cli.Context) error {
			logger, closeLog := NewLogger(c)
			defer closeLog()
			logger.Info("hello", "files", 3)
			logger.Debug("hidden")
			return nil
		},
	}
	if err := app.Run([]string{"test", "--log-file", path}); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || !strings.Contains(string(data), `"files":3`) {
		t.Errorf("log file = %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug record written at info level")
	}
}
