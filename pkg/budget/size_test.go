package budget

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    Size
		wantErr bool
	}{
		{"300", 300, false},
		{" 1400000 ", 1400000, false},
		{"1_400_000", 1400000, false},
		{"12kb", 12000, false},
		{"300KB", 300000, false},
		{"1.5 MB", 1500000, false},
		{"1KiB", 1024, false},
		{"1.4MB", 1400000, false},
		{"1,400 kB", 1400000, false},
		{"300.0", 300, false},
		{"1.5kb", 1500, false},
		{"300.5", 0, true},
		{"1.0001kB", 0, true},
		{"0.5KiB", 512, false},
		{"", 0, true},
		{"-5", 0, true},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSize_FractionalJSONIsRejected(t *testing.T) {
	var c Config
	if err := json.Unmarshal([]byte(`{"css": 300.5}`), &c); err == nil {
		t.Errorf("json css 300.5 decoded as %v, want an error", *c.CSS)
	}
	if err := json.Unmarshal([]byte(`{"css": 300.0}`), &c); err != nil || *c.CSS != 300 {
		t.Errorf("json css 300.0 = %v, %v; want 300", c.CSS, err)
	}
}

func TestParseSize_NegativeIsBudgetError(t *testing.T) {
	_, err := ParseSize("-10")
	if !errors.Is(err, ErrNegativeBudget) {
		t.Errorf("ParseSize(-10) error = %v, want ErrNegativeBudget", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{300, "300 B"},
		{1400000, "1.4 MB"},
		{-300, "-300 B"},
		{-2500, "-2.5 kB"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfig_DecodeFormats(t *testing.T) {
	want := Config{
		Total: Size(9000).Ptr(),
		CSS:   Size(2000).Ptr(),
	}

	check := func(t *testing.T, got Config) {
		t.Helper()
		if got.Total == nil || *got.Total != *want.Total {
			t.Errorf("Total = %v, want %d", got.Total, *want.Total)
		}
		if got.CSS == nil || *got.CSS != *want.CSS {
			t.Errorf("CSS = %v, want %d", got.CSS, *want.CSS)
		}
		if got.Images != nil {
			t.Errorf("Images = %d, want unset", *got.Images)
		}
	}

	t.Run("json", func(t *testing.T) {
		var got Config
		if err := json.Unmarshal([]byte(`{"total": 9000, "css": "2kB"}`), &got); err != nil {
			t.Fatalf("json.Unmarshal() error = %v", err)
		}
		check(t, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var got Config
		if err := yaml.Unmarshal([]byte("total: 9000\ncss: 2 kB\n"), &got); err != nil {
			t.Fatalf("yaml.Unmarshal() error = %v", err)
		}
		check(t, got)
	})

	t.Run("toml", func(t *testing.T) {
		var got Config
		if err := toml.Unmarshal([]byte("total = 9000\ncss = \"2kB\"\n"), &got); err != nil {
			t.Fatalf("toml.Unmarshal() error = %v", err)
		}
		check(t, got)
	})
}
