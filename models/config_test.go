package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/perf-budget/pkg/budget"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "perf-budget.yaml",
			content: `dest: out/report.json
writeMode: final
budget:
  total: 9000
  css: 2kB
`,
		},
		{
			name: "jsonc with comments",
			file: "perf-budget.jsonc",
			content: `{
  // where to write
  "dest": "out/report.json",
  "writeMode": "final",
  "budget": { "total": 9000, "css": "2kB", },
}`,
		},
		{
			name: "json",
			file: "perf-budget.json",
			content: `{"dest": "out/report.json", "writeMode": "final", "budget": {"total": 9000, "css": 2000}}`,
		},
		{
			name: "toml",
			file: "perf-budget.toml",
			content: `dest = "out/report.json"
writeMode = "final"

[budget]
total = 9000
css = "2kB"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.Dest != "out/report.json" {
				t.Errorf("Dest = %q", cfg.Dest)
			}
			if cfg.WriteMode != WriteFinal {
				t.Errorf("WriteMode = %q, want %q", cfg.WriteMode, WriteFinal)
			}

			b, err := budget.Resolve(cfg.Budget)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			want := budget.Budget{Total: 9000, CSS: 2000, Images: 600, JS: 200, Fonts: 300}
			if b != want {
				t.Errorf("resolved budget = %+v, want %+v", b, want)
			}
		})
	}
}

func TestLoadConfig_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("LoadConfig(empty) = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "config.ini", "dest=x"},
		{"bad size", "config.yaml", "budget:\n  css: lots\n"},
		{"unknown json field", "config.json", `{"destination": "x"}`},
		{"bad write mode", "config.yaml", "writeMode: sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.file, tt.content)); err == nil {
				t.Error("LoadConfig() error = nil, want error")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() on missing file should fail")
	}
}

func TestParseWriteMode(t *testing.T) {
	tests := []struct {
		in      string
		want    WriteMode
		wantErr bool
	}{
		{"", WriteThrough, false},
		{"through", WriteThrough, false},
		{"FINAL", WriteFinal, false},
		{"never", "", true},
	}
	for _, tt := range tests {
		got, err := ParseWriteMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWriteMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWriteMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
