package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0", 0, false},
		{"0.5", 50, false},
		{"12.345", 1235, false}, // half-up on third decimal
		{"12.344", 1234, false},
		{"", 0, true},
		{"-1.00", 0, true},
		{"+1.00", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"12.3a", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		cents int64
		wire  string
	}{
		{1234, "12.34"},
		{0, "0.00"},
		{5, "0.05"},
		{120000, "1200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			b, err := json.Marshal(Money{Cents: tt.cents})
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(b) != tt.wire {
				t.Errorf("Marshal = %s, want %s", b, tt.wire)
			}

			var m Money
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if m.Cents != tt.cents {
				t.Errorf("round trip = %d cents, want %d", m.Cents, tt.cents)
			}
		})
	}
}

func TestMoney_UnmarshalRejectsNegative(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`-12.34`), &m); err == nil {
		t.Error("negative amount should be rejected")
	}
}

func TestMoney_UnmarshalQuotedString(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"12.34"`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Cents != 1234 {
		t.Errorf("Cents = %d, want 1234", m.Cents)
	}
}

func TestMoney_String(t *testing.T) {
	if got := (Money{Cents: 5000}).String(); got != "$50.00" {
		t.Errorf("String() = %q, want $50.00", got)
	}
	if got := (Money{Cents: -5000}).String(); got != "-$50.00" {
		t.Errorf("String() = %q, want -$50.00", got)
	}
}
