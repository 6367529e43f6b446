// Package models defines the configuration surface of a measuring run.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/report"
)

// WriteMode controls when the report is persisted.
type WriteMode string

const (
	// WriteThrough persists after every artifact.
	WriteThrough WriteMode = "through"
	// WriteFinal persists once, after the last artifact.
	WriteFinal WriteMode = "final"
)

// Config holds the settings of one run. Values come from an optional config
// file with CLI flags layered on top.
type Config struct {
	Dest      string        `yaml:"dest,omitempty" json:"dest,omitempty" toml:"dest,omitempty"`
	WriteMode WriteMode     `yaml:"writeMode,omitempty" json:"writeMode,omitempty" toml:"writeMode,omitempty"`
	Budget    budget.Config `yaml:"budget,omitempty" json:"budget,omitempty" toml:"budget,omitempty"`
}

// Default returns a config with every field at its default.
func Default() Config {
	return Config{
		Dest:      report.DefaultDest,
		WriteMode: WriteThrough,
	}
}

// ParseWriteMode validates a write mode name. Empty means WriteThrough.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", WriteThrough:
		return WriteThrough, nil
	case WriteFinal:
		return WriteFinal, nil
	}
	return "", fmt.Errorf("unknown write mode %q (use: through or final)", s)
}

// LoadConfig reads a config file, picking the decoder by extension:
// .yaml/.yml, .json/.jsonc (comments and trailing commas allowed) or .toml.
// Fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := decodeConfig(path, data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	mode, err := ParseWriteMode(string(cfg.WriteMode))
	if err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.WriteMode = mode
	if cfg.Dest == "" {
		cfg.Dest = report.DefaultDest
	}

	return cfg, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return yaml.Unmarshal(data, cfg)
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (use .yaml, .json, .jsonc or .toml)", filepath.Ext(path))
	}
}
