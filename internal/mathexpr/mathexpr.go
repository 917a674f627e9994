// Package mathexpr evaluates plain arithmetic expressions: decimal
// numbers, + - * /, unary minus, and parentheses. Nothing else parses,
// so untrusted chat input can never reach anything but arithmetic.
package mathexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrDivideByZero = errors.New("division by zero")

// SyntaxError reports where parsing failed.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// Eval parses and evaluates expr.
func Eval(expr string) (float64, error) {
	p := &parser{input: expr}
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", p.input[p.pos])}
	}
	return v, nil
}

// Format renders a result the way a calculator reply should read:
// integers without a decimal point, everything else trimmed.
func Format(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() (byte, bool) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

// expression := term (('+' | '-') term)*
func (p *parser) expression() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := p.peek()
		if !ok || (c != '+' && c != '-') {
			return v, nil
		}
		p.pos++
		rhs, err := p.term()
		if err != nil {
			return 0, err
		}
		if c == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

// term := factor (('*' | '/') factor)*
func (p *parser) term() (float64, error) {
	v, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := p.peek()
		if !ok || (c != '*' && c != '/') {
			return v, nil
		}
		p.pos++
		rhs, err := p.factor()
		if err != nil {
			return 0, err
		}
		if c == '*' {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, ErrDivideByZero
			}
			v /= rhs
		}
	}
}

// factor := '-' factor | '(' expression ')' | number
func (p *parser) factor() (float64, error) {
	c, ok := p.peek()
	if !ok {
		return 0, &SyntaxError{Pos: p.pos, Msg: "unexpected end of expression"}
	}
	switch {
	case c == '-':
		p.pos++
		v, err := p.factor()
		return -v, err
	case c == '(':
		p.pos++
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if c, ok := p.peek(); !ok || c != ')' {
			return 0, &SyntaxError{Pos: p.pos, Msg: "missing closing parenthesis"}
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.number()
	default:
		return 0, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", c)}
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	seenDot := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
			p.pos++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	text := p.input[start:p.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("bad number %q", text)}
	}
	return v, nil
}
