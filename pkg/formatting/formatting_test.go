package formatting_test

import (
	"testing"

	"github.com/JaimeStill/setu/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"bare bytes", "1024", 1024, false},
		{"bytes unit", "512B", 512, false},
		{"si megabytes", "5MB", 5_000_000, false},
		{"iec mebibytes", "5MiB", 5 * 1024 * 1024, false},
		{"lowercase unit", "10mib", 10 * 1024 * 1024, false},
		{"with space", "100 KiB", 100 * 1024, false},
		{"leading whitespace", "  2MiB", 2 * 1024 * 1024, false},
		{"zero", "0", 0, false},
		{"empty string", "", 0, true},
		{"unknown unit", "50XX", 0, true},
		{"no number", "MB", 0, true},
		{"negative", "-5MB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 500, "500 B"},
		{"fractional KiB", 1536, "1.5 KiB"},
		{"five MiB", 5 * 1024 * 1024, "5.0 MiB"},
		{"fifty MiB", 50 * 1024 * 1024, "50 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.FormatBytes(tt.n); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatEmissions(t *testing.T) {
	tests := []struct {
		name string
		kg   float64
		want string
	}{
		{"zero", 0, "0 kg"},
		{"whole", 1500, "1,500 kg"},
		{"fraction", 1234.5, "1,234.5 kg"},
		{"rounded", 116.456, "116.46 kg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatting.FormatEmissions(tt.kg); got != tt.want {
				t.Errorf("FormatEmissions(%v) = %q, want %q", tt.kg, got, tt.want)
			}
		})
	}
}

func TestFormatTonnes(t *testing.T) {
	if got := formatting.FormatTonnes(1250); got != "1.25 t" {
		t.Errorf("FormatTonnes(1250) = %q, want %q", got, "1.25 t")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, whole float64
		want        string
	}{
		{"electricity share", 900, 1500, "60.0%"},
		{"third", 1, 3, "33.3%"},
		{"zero whole", 10, 0, "0.0%"},
		{"zero part", 0, 100, "0.0%"},
		{"capped", 150, 100, "100.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatting.FormatPercent(formatting.Percent(tt.part, tt.whole))
			if got != tt.want {
				t.Errorf("Percent(%v, %v) = %q, want %q", tt.part, tt.whole, got, tt.want)
			}
		})
	}
}
