package audio

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"23", 23},
		{"3.33", 3.33},
		{"0", 0},
		{"1:23", 83},
		{"1:23.5", 83.5},
		{"3:21.5", 201.5},
		{"1:01:23", 3683},
		{"4:23.5", 263.5},
		{" 1:23 ", 83},
		{"90:00", 5400},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	cases := []string{
		"",
		"abc",
		"1:xx",
		"1:2:3:4",
		"-5",
		"1:-30",
		"::",
		"12 34",
	}
	for _, in := range cases {
		if _, err := ParseTimestamp(in); !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("ParseTimestamp(%q): expected ErrInvalidTimestamp, got %v", in, err)
		}
	}
}

func TestParseTimestampProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.IntRange(0, 99).Draw(t, "h")
		m := rapid.IntRange(0, 59).Draw(t, "m")
		// Half-second steps keep the expected sum exact in float arithmetic.
		s := float64(rapid.IntRange(0, 119).Draw(t, "s")) / 2

		in := fmt.Sprintf("%d:%d:%v", h, m, s)
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", in, err)
		}
		want := float64(h)*3600 + float64(m)*60 + s
		if got != want {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	})
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{23, "0:23"},
		{83, "1:23"},
		{83.5, "1:23.5"},
		{201.5, "3:21.5"},
		{3600, "60:00"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.in); got != tc.want {
			t.Fatalf("FormatSeconds(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
