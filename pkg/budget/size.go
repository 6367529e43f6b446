package budget

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Size is a byte count read from configuration. It accepts plain integers
// ("300", 300) and humanized strings ("300KB", "1.4 MB", "12kb").
type Size int64

// ParseSize converts a configured size into an exact byte count. Fractional
// values are accepted only when they come to a whole number of bytes, so
// "1.5kB" is 1500 but "300.5" and "1.0001kB" are errors.
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid size: empty value")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid size %q: %w", s, ErrNegativeBudget)
	}

	if n, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64); err == nil {
		return Size(n), nil
	}

	// humanize validates the unit; the amount is recomputed exactly below.
	if _, err := humanize.ParseBytes(s); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	num, unit := splitAmount(s)
	amount, ok := new(big.Rat).SetString(num)
	if !ok {
		return 0, fmt.Errorf("invalid size %q: malformed number", s)
	}
	mult, err := humanize.ParseBytes("1" + unit)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	amount.Mul(amount, new(big.Rat).SetInt(new(big.Int).SetUint64(mult)))
	if !amount.IsInt() {
		return 0, fmt.Errorf("invalid size %q: not a whole number of bytes", s)
	}
	if !amount.Num().IsInt64() {
		return 0, fmt.Errorf("invalid size %q: value out of range", s)
	}
	return Size(amount.Num().Int64()), nil
}

// splitAmount separates the leading number (commas dropped) from the unit.
func splitAmount(s string) (num, unit string) {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == ',') {
		i++
	}
	return strings.ReplaceAll(s[:i], ",", ""), strings.TrimSpace(s[i:])
}

// Ptr returns a pointer to s, for building a Config in code.
func (s Size) Ptr() *Size {
	return &s
}

func (s Size) String() string {
	return Format(int64(s))
}

// Format renders a byte count for humans. Negative values (overruns) keep their sign.
func Format(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

func (s *Size) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := ParseSize(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	v, err := ParseSize(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = v
	return nil
}

// UnmarshalText is used by the TOML decoder for both integer and string values.
func (s *Size) UnmarshalText(text []byte) error {
	v, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
