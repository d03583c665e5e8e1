package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0.05", 5, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{" 7.5 ", 750, false},
		{"", 0, true},
		{"-3.50", 0, true},
		{"+3.50", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoney_Format(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{-850, "-8.50"},
		{100000, "1000.00"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).Format(); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
