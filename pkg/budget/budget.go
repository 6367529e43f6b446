// Package budget resolves size budgets and computes remaining headroom.
//
// All values are bytes. The per-category defaults are small next to the total
// default; configs written for tools that read those figures as kilobytes should
// state the unit explicitly ("300KB").
package budget

import (
	"errors"
	"fmt"
)

const (
	DefaultTotal  Size = 1400000
	DefaultCSS    Size = 300
	DefaultImages Size = 600
	DefaultJS     Size = 200
	DefaultFonts  Size = 300
)

var (
	// ErrCategoriesExceedTotal means css + images + js + fonts is larger than total.
	ErrCategoriesExceedTotal = errors.New("the total budget size of the broken down assets is larger than the total budget")
	// ErrNegativeBudget rejects budget values below zero.
	ErrNegativeBudget = errors.New("budget values must not be negative")
)

// Config is the user supplied budget. Nil fields take the defaults.
type Config struct {
	Total  *Size `yaml:"total,omitempty" json:"total,omitempty" toml:"total,omitempty"`
	CSS    *Size `yaml:"css,omitempty" json:"css,omitempty" toml:"css,omitempty"`
	Images *Size `yaml:"images,omitempty" json:"images,omitempty" toml:"images,omitempty"`
	JS     *Size `yaml:"js,omitempty" json:"js,omitempty" toml:"js,omitempty"`
	Fonts  *Size `yaml:"fonts,omitempty" json:"fonts,omitempty" toml:"fonts,omitempty"`
}

// Merge returns c with every field set in over replacing the value in c.
func (c Config) Merge(over Config) Config {
	if over.Total != nil {
		c.Total = over.Total
	}
	if over.CSS != nil {
		c.CSS = over.CSS
	}
	if over.Images != nil {
		c.Images = over.Images
	}
	if over.JS != nil {
		c.JS = over.JS
	}
	if over.Fonts != nil {
		c.Fonts = over.Fonts
	}
	return c
}

// Budget holds resolved ceilings in bytes.
type Budget struct {
	Total  int64 `json:"total" yaml:"total"`
	CSS    int64 `json:"css" yaml:"css"`
	Images int64 `json:"images" yaml:"images"`
	JS     int64 `json:"js" yaml:"js"`
	Fonts  int64 `json:"fonts" yaml:"fonts"`
}

// CategorySum is the sum of the per-category ceilings.
func (b Budget) CategorySum() int64 {
	return b.CSS + b.Images + b.JS + b.Fonts
}

// Totals are the accumulated sizes a budget is checked against.
type Totals struct {
	TotalSize int64 `json:"totalSize" yaml:"totalSize"`
	CSS       int64 `json:"css" yaml:"css"`
	Images    int64 `json:"images" yaml:"images"`
	JS        int64 `json:"js" yaml:"js"`
	Fonts     int64 `json:"fonts" yaml:"fonts"`
}

// RemainingBudget is budget minus totals, field by field. Negative means over budget.
type RemainingBudget struct {
	Total  int64 `json:"total" yaml:"total"`
	CSS    int64 `json:"css" yaml:"css"`
	Images int64 `json:"images" yaml:"images"`
	JS     int64 `json:"js" yaml:"js"`
	Fonts  int64 `json:"fonts" yaml:"fonts"`
}

// Overrun names one budget field that went below zero and by how much.
type Overrun struct {
	Field string
	By    int64
}

// Resolve fills omitted fields with defaults and validates the result.
func Resolve(cfg Config) (Budget, error) {
	b := Budget{
		Total:  int64(valueOr(cfg.Total, DefaultTotal)),
		CSS:    int64(valueOr(cfg.CSS, DefaultCSS)),
		Images: int64(valueOr(cfg.Images, DefaultImages)),
		JS:     int64(valueOr(cfg.JS, DefaultJS)),
		Fonts:  int64(valueOr(cfg.Fonts, DefaultFonts)),
	}

	if b.Total < 0 || b.CSS < 0 || b.Images < 0 || b.JS < 0 || b.Fonts < 0 {
		return Budget{}, ErrNegativeBudget
	}
	if sum := b.CategorySum(); sum > b.Total {
		return Budget{}, fmt.Errorf("%w (css %d + images %d + js %d + fonts %d = %d > total %d)",
			ErrCategoriesExceedTotal, b.CSS, b.Images, b.JS, b.Fonts, sum, b.Total)
	}
	return b, nil
}

// Remaining subtracts totals from the budget. It never fails on overrun.
func Remaining(b Budget, t Totals) RemainingBudget {
	return RemainingBudget{
		Total:  b.Total - t.TotalSize,
		CSS:    b.CSS - t.CSS,
		Images: b.Images - t.Images,
		JS:     b.JS - t.JS,
		Fonts:  b.Fonts - t.Fonts,
	}
}

// Overruns lists the fields that are over budget, in report order.
func (r RemainingBudget) Overruns() []Overrun {
	var out []Overrun
	fields := []struct {
		name  string
		value int64
	}{
		{"total", r.Total},
		{"css", r.CSS},
		{"images", r.Images},
		{"js", r.JS},
		{"fonts", r.Fonts},
	}
	for _, f := range fields {
		if f.value < 0 {
			out = append(out, Overrun{Field: f.name, By: -f.value})
		}
	}
	return out
}

func valueOr(v *Size, def Size) Size {
	if v == nil {
		return def
	}
	return *v
}
