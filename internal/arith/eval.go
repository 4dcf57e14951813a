// Package arith backs the calculator widget: a small arithmetic expression
// evaluator, the single-value operations and a per-session result history.
package arith

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"multitool/internal/core"
)

var (
	ErrSyntax         = fmt.Errorf("%w: malformed expression", core.ErrInvalidInput)
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", core.ErrInvalidInput)
	ErrEmpty          = fmt.Errorf("%w: expression is required", core.ErrInvalidInput)
	ErrTooLong        = fmt.Errorf("%w: expression too long", core.ErrInvalidInput)
	ErrNotANumber     = fmt.Errorf("%w: result is not a finite number", core.ErrInvalidInput)
)

// MaxExpressionLength bounds the input accepted by Eval.
const MaxExpressionLength = 256

// maxDepth bounds parenthesis and unary-minus nesting.
const maxDepth = 64

// Eval evaluates an infix expression over decimal numbers with + - * /,
// parentheses and unary minus. Multiplication and division bind tighter
// than addition and subtraction; operators of equal precedence associate
// left.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | "+" unary | primary
//	primary = number | "(" expr ")"
func Eval(expr string) (float64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, ErrEmpty
	}
	if len(expr) > MaxExpressionLength {
		return 0, ErrTooLong
	}

	p := &parser{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return 0, p.errorf("unexpected %q", p.src[p.pos])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotANumber
	}
	return v, nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// peek returns the next non-space byte, or 0 at the end.
func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek() {
	case '-', '+':
		sign := p.src[p.pos]
		p.pos++
		if err := p.enter(); err != nil {
			return 0, err
		}
		v, err := p.unary()
		p.depth--
		if sign == '-' {
			v = -v
		}
		return v, err
	}
	return p.primary()
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorf("nesting too deep")
	}
	return nil
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		if err := p.enter(); err != nil {
			return 0, err
		}
		v, err := p.expr()
		p.depth--
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, p.errorf("missing )")
		}
		p.pos++
		return v, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case c == 0:
		return 0, p.errorf("unexpected end of expression")
	default:
		return 0, p.errorf("unexpected %q", c)
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	dots := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' {
			dots++
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if dots > 1 || lit == "." {
		p.pos = start
		return 0, p.errorf("bad number %q", lit)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("bad number %q", lit)
	}
	return v, nil
}

// Op is a single-value calculator operation.
type Op string

const (
	OpSquare  Op = "square"
	OpSqrt    Op = "sqrt"
	OpPercent Op = "percent"
)

// Apply runs op on v. Square roots of negative numbers are rejected.
func Apply(op Op, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotANumber
	}

	var out float64
	switch op {
	case OpSquare:
		out = v * v
	case OpSqrt:
		if v < 0 {
			return 0, fmt.Errorf("%w: square root of a negative number", core.ErrInvalidInput)
		}
		out = math.Sqrt(v)
	case OpPercent:
		out = v / 100
	default:
		return 0, fmt.Errorf("%w: unknown operation %q", core.ErrInvalidInput, op)
	}

	if math.IsInf(out, 0) {
		return 0, ErrNotANumber
	}
	return out, nil
}

// Describe renders an operation the way it is shown in the history.
func (op Op) Describe(v float64) string {
	switch op {
	case OpSquare:
		return "(" + Format(v) + ")²"
	case OpSqrt:
		return "√(" + Format(v) + ")"
	case OpPercent:
		return Format(v) + "%"
	}
	return string(op) + "(" + Format(v) + ")"
}

// Format prints v with the fewest digits that round-trip.
func Format(v float64) string {
	if v == 0 {
		return "0" // no "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsSyntaxError reports whether err came from a malformed expression.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrSyntax)
}
