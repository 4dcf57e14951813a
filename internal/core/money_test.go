package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"60000", 60000, true},
		{"£60,000.50", 60000.5, true},
		{" 2.50 ", 2.5, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"£", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q expected ErrInvalidInput, got %v", tc.in, err)
		}
	}
}

func TestFormatPounds(t *testing.T) {
	cases := map[float64]string{
		0:          "£0.00",
		3486:       "£3,486.00",
		1394.4:     "£1,394.40",
		125140:     "£125,140.00",
		-12.5:      "-£12.50",
		1234567.89: "£1,234,567.89",
	}
	for in, want := range cases {
		if got := FormatPounds(in); got != want {
			t.Errorf("FormatPounds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundPence(t *testing.T) {
	if got := RoundPence(194.6000000001); got != 194.6 {
		t.Fatalf("got %v", got)
	}
	if got := RoundPence(0.005); got != 0.01 {
		t.Fatalf("got %v", got)
	}
}
