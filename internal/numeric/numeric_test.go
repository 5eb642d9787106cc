package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundTrip(t *testing.T) {
	values := []string{
		"0",
		"1",
		"-1",
		"0.00000001",
		"42000.5",
		"-0.1",
		"123456789012345678901234567890.123456789",
		"9999999999999999999999999999999999",
		"0.000000000000000000000000000001",
	}

	for _, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			t.Fatalf("bad test value %q: %v", v, err)
		}

		got, err := Decode(Encode(d))
		if err != nil {
			t.Errorf("Decode(Encode(%s)) error = %v", v, err)
			continue
		}
		if !got.Equal(d) {
			t.Errorf("Decode(Encode(%s)) = %s, want %s", v, got, d)
		}
	}
}

func TestEncodeCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42000.50", "42000.5"},
		{"10000000", "10000000"},
		{"0.0", "0"},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		if err != nil {
			t.Fatalf("bad test value %q: %v", tt.in, err)
		}
		if got := Encode(d); got != tt.want {
			t.Errorf("Encode(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3", "NaN-ish", "0x10"} {
		if _, err := Decode(s); err == nil {
			t.Errorf("Decode(%q) expected error, got nil", s)
		}
	}
}
