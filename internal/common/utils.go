package common

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/dtnitsch/perf-budget/pkg/budget"
)

// ContentHash computes the xxhash64 fingerprint of content as a 16-char hex string.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// FormatDelta renders the change between two byte counts, e.g. "+1.2 kB" or "-300 B".
func FormatDelta(from, to int64) string {
	d := to - from
	switch {
	case d > 0:
		return "+" + budget.Format(d)
	case d < 0:
		return budget.Format(d)
	default:
		return "0"
	}
}

// TruncatePath shortens p to width runes by dropping leading characters.
func TruncatePath(p string, width int) string {
	r := []rune(p)
	if width <= 3 || len(r) <= width {
		return p
	}
	return "..." + string(r[len(r)-(width-3):])
}
