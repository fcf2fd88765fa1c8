package utils

import "testing"

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1234567.89, "$1,234,567.89"},
		{-98765.4, "-$98,765.40"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestFormatUSDCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{500, "$500.00"},
		{1500, "$1.5K"},
		{1927345, "$1.93M"},
		{192734500000, "$192.73B"},
		{3.2e12, "$3.2T"},
		{-2500000, "-$2.5M"},
	}
	for _, tt := range tests {
		if got := FormatUSDCompact(tt.in); got != tt.want {
			t.Errorf("FormatUSDCompact(%v): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(0.0245); got != "+2.45%" {
		t.Errorf("expected +2.45%%, got %s", got)
	}
	if got := FormatPct(-0.0123); got != "-1.23%" {
		t.Errorf("expected -1.23%%, got %s", got)
	}
}

func TestOrNA(t *testing.T) {
	if got := OrNA(nil, FormatUSD); got != "n/a" {
		t.Errorf("expected n/a, got %s", got)
	}
	v := 2.5
	if got := OrNA(&v, FormatRatio); got != "2.50x" {
		t.Errorf("expected 2.50x, got %s", got)
	}
}
