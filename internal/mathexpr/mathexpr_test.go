package mathexpr

import (
	"errors"
	"math"
	"testing"
)

func TestEval(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"1+1", 2},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-5 + 3", -2},
		{"--4", 4},
		{"2 * -3", -6},
		{"1.5 + 2.25", 3.75},
		{"((1))", 1},
		{"100 - 10 - 5", 85},
	}
	for _, tc := range cases {
		got, err := Eval(tc.expr)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tc.expr, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	bad := []string{
		"", "1 +", "* 2", "(1 + 2", "1 + a", "2 ** 3", "1..2", "foo(3)",
	}
	for _, expr := range bad {
		if _, err := Eval(expr); err == nil {
			t.Fatalf("Eval(%q) succeeded", expr)
		}
	}

	if _, err := Eval("1 / 0"); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("divide by zero: err = %v", err)
	}
	if _, err := Eval("5 / (3 - 3)"); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("nested divide by zero: err = %v", err)
	}
}

func TestEvalRejectsNonArithmetic(t *testing.T) {
	// Anything resembling identifiers or calls must fail to parse.
	for _, expr := range []string{"process.exit()", "len(x)", "1; 2", "0x10"} {
		if _, err := Eval(expr); err == nil {
			t.Fatalf("Eval(%q) succeeded", expr)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{4, "4"},
		{2.5, "2.5"},
		{-3, "-3"},
		{0.333333333, "0.333333"},
	}
	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
