package arith

import (
	"errors"
	"testing"

	"multitool/internal/core"
)

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1+2", 3},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10/4", 2.5},
		{"10-4-3", 3},
		{"8/2/2", 2},
		{"-3+5", 2},
		{"-(2+3)", -5},
		{"--4", 4},
		{"2*-3", -6},
		{" 1.5 * 2 ", 3},
		{".5+.25", 0.75},
		{"0.1+0.2", 0.30000000000000004}, // float64 addition, not the folded constant
		{"((((7))))", 7},
		{"+4", 4},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		expr string
		want error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"1/0", ErrDivisionByZero},
		{"1/(2-2)", ErrDivisionByZero},
		{"1+", ErrSyntax},
		{"(1+2", ErrSyntax},
		{"1+2)", ErrSyntax},
		{"1..2", ErrSyntax},
		{".", ErrSyntax},
		{"2^3", ErrSyntax},
		{"alert(1)", ErrSyntax},
		{"1 2", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Eval(tt.expr)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Eval(%q) error = %v, want %v", tt.expr, err, tt.want)
			}
			if !errors.Is(err, core.ErrInvalidInput) {
				t.Errorf("Eval(%q) error should be invalid input", tt.expr)
			}
		})
	}
}

func TestEvalLimits(t *testing.T) {
	long := make([]byte, MaxExpressionLength+1)
	for i := range long {
		long[i] = '1'
	}
	if _, err := Eval(string(long)); !errors.Is(err, ErrTooLong) {
		t.Errorf("long expression error = %v", err)
	}

	deep := ""
	for i := 0; i < maxDepth+1; i++ {
		deep += "("
	}
	if _, err := Eval(deep + "1"); !IsSyntaxError(err) {
		t.Errorf("deep nesting error = %v", err)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		op   Op
		in   float64
		want float64
	}{
		{OpSquare, 3, 9},
		{OpSquare, -4, 16},
		{OpSqrt, 16, 4},
		{OpPercent, 50, 0.5},
		{OpPercent, 12.5, 0.125},
	}
	for _, tt := range tests {
		got, err := Apply(tt.op, tt.in)
		if err != nil {
			t.Fatalf("Apply(%s, %v) error = %v", tt.op, tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Apply(%s, %v) = %v, want %v", tt.op, tt.in, got, tt.want)
		}
	}

	if _, err := Apply(OpSqrt, -1); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("sqrt(-1) error = %v", err)
	}
	if _, err := Apply("cube", 2); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("unknown op error = %v", err)
	}
	if _, err := Apply(OpSquare, 1e200); !errors.Is(err, ErrNotANumber) {
		t.Errorf("overflow error = %v", err)
	}
}

func TestFormatAndDescribe(t *testing.T) {
	cases := map[string]string{
		Format(2.5):            "2.5",
		Format(1e21):           "1000000000000000000000",
		Format(-0.0):           "0",
		OpSquare.Describe(3):   "(3)²",
		OpSqrt.Describe(16):    "√(16)",
		OpPercent.Describe(50): "50%",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
