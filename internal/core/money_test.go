package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out Cents
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCentsUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in  string
		out Cents
		ok  bool
	}{
		{`123.45`, 12345, true},
		{`"123.45"`, 12345, true},
		{`"123,45"`, 12345, true},
		{`-0.05`, -5, true},
		{`"-10"`, -1000, true},
		{`0`, 0, true},
		{`null`, 0, true},
		{`""`, 0, true},
		{`"abc"`, 0, false},
	}
	for _, tc := range cases {
		var got Cents
		err := json.Unmarshal([]byte(tc.in), &got)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%s expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%s expected error", tc.in)
			}
		}
	}
}

func TestCentsMarshalJSON(t *testing.T) {
	cases := []struct {
		in  Cents
		out string
	}{
		{12345, "123.45"},
		{-5, "-0.05"},
		{0, "0.00"},
		{100, "1.00"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(tc.in)
		if err != nil || string(b) != tc.out {
			t.Fatalf("%d expected %s, got %s (err=%v)", tc.in, tc.out, b, err)
		}
	}
}

func TestCentsFormatting(t *testing.T) {
	if got := Cents(123456).BRL(); got != "R$ 1234,56" {
		t.Fatalf("BRL: got %q", got)
	}
	if got := Cents(-250).BRL(); got != "-R$ 2,50" {
		t.Fatalf("BRL negative: got %q", got)
	}
	if got := Cents(12345).Decimal(); got != "123.45" {
		t.Fatalf("Decimal: got %q", got)
	}
}
