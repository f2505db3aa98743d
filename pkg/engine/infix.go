package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Infix translation
// ---------------------------------------------------------------------------

// Published zoning data writes conditions and expressions in Python infix
// ("bedrooms == 1", "lot_width * 0.1"). translateInfix turns such source
// into the equivalent s-expression. Binding powers, lowest first:
//
//	x if c else y
//	or
//	and
//	not
//	== != < <= > >=   (chains expand to and)
//	+ -
//	* / // %
//	unary - +
//	**                (right associative)
//
// / is true division and // floors it. Names may use kebab-case like
// s-expression source does, so "lot-width" is one identifier.
func translateInfix(source string) (string, error) {
	toks, err := lexInfix(source)
	if err != nil {
		return "", err
	}
	p := &infixParser{toks: toks}
	out, err := p.expr()
	if err != nil {
		return "", err
	}
	if t := p.peek(); t.kind != tokEOF {
		return "", p.unexpected(t)
	}
	return out, nil
}

// isSExpression reports whether source is written as an s-expression
// rather than infix. It looks at the first form only: an opening paren
// whose head is an operator, a keyword, or a name followed by an argument.
// A name followed by an infix operator or a call paren is a grouped infix
// expression.
func isSExpression(source string) bool {
	s := skipLispComments(source)
	if !strings.HasPrefix(s, "(") {
		return false
	}
	s = strings.TrimLeft(s[1:], " \t\r\n")
	if s == "" {
		return true
	}
	c := s[0]
	switch {
	case c == '(':
		return true
	case strings.IndexByte("+-*/<>=!%", c) >= 0:
		return true
	case !isLetter(c) && c != '_':
		return false
	}

	n := 1
	for n < len(s) && (isIdentChar(s[n]) || s[n] == '-' && n+1 < len(s) && isLetter(s[n+1])) {
		n++
	}
	switch s[:n] {
	case "and", "or", "not", "cond", "begin", "let":
		return true
	}
	if n < len(s) && s[n] == '(' {
		return false
	}

	rest := strings.TrimLeft(s[n:], " \t\r\n")
	switch {
	case rest == "", rest[0] == ')':
		return false
	case rest[0] == '-' && len(rest) > 1 && (isDigit(rest[1]) || rest[1] == '.'):
		return true
	case strings.IndexByte("+-*/<>=!%", rest[0]) >= 0:
		return false
	}
	for _, kw := range []string{"and", "or", "if", "else"} {
		if strings.HasPrefix(rest, kw) && (len(rest) == len(kw) || !isIdentChar(rest[len(kw)])) {
			return false
		}
	}
	return true
}

// skipLispComments drops leading whitespace and ; comment lines.
func skipLispComments(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		if !strings.HasPrefix(s, ";") {
			return s
		}
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			return ""
		}
		s = s[i+1:]
	}
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var twoCharOps = []string{"**", "//", "==", "!=", "<=", ">="}

func lexInfix(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}

		case isDigit(c) || c == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					for i = j; i < len(src) && isDigit(src[i]); i++ {
					}
				}
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})

		case isLetter(c) || c == '_':
			start := i
			for i < len(src) {
				d := src[i]
				if isIdentChar(d) || d == '.' ||
					d == '-' && i+1 < len(src) && isLetter(src[i+1]) {
					i++
					continue
				}
				break
			}
			toks = append(toks, token{kind: tokName, text: src[start:i], pos: start})

		case c == '"' || c == '\'':
			start := i
			var sb strings.Builder
			i++
			for i < len(src) && src[i] != c {
				if src[i] == '\\' && i+1 < len(src) {
					i++
				}
				sb.WriteByte(src[i])
				i++
			}
			if i >= len(src) {
				return nil, EvalError{Message: fmt.Sprintf("unterminated string at offset %d", start)}
			}
			i++
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: start})

		default:
			op := ""
			for _, o := range twoCharOps {
				if strings.HasPrefix(src[i:], o) {
					op = o
					break
				}
			}
			if op == "" && strings.IndexByte("+-*/%<>(),", c) >= 0 {
				op = string(c)
			}
			if op == "" {
				return nil, EvalError{Message: fmt.Sprintf("unexpected character %q at offset %d", c, i)}
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

type infixParser struct {
	toks []token
	pos  int
}

func (p *infixParser) peek() token { return p.toks[p.pos] }

func (p *infixParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// at reports whether the next token is the operator or keyword s.
func (p *infixParser) at(s string) bool {
	t := p.peek()
	return (t.kind == tokOp || t.kind == tokName) && t.text == s
}

func (p *infixParser) expect(s string) error {
	if !p.at(s) {
		return p.unexpected(p.peek())
	}
	p.next()
	return nil
}

func (p *infixParser) unexpected(t token) error {
	if t.kind == tokEOF {
		return EvalError{Message: "unexpected end of expression"}
	}
	return EvalError{Message: fmt.Sprintf("unexpected %q at offset %d", t.text, t.pos)}
}

func (p *infixParser) expr() (string, error) {
	x, err := p.or()
	if err != nil || !p.at("if") {
		return x, err
	}
	p.next()
	cond, err := p.or()
	if err != nil {
		return "", err
	}
	if err := p.expect("else"); err != nil {
		return "", err
	}
	y, err := p.expr()
	if err != nil {
		return "", err
	}
	return "(cond " + cond + " " + x + " " + y + ")", nil
}

func (p *infixParser) or() (string, error) {
	return p.variadic("or", p.and)
}

func (p *infixParser) and() (string, error) {
	return p.variadic("and", p.not)
}

// variadic parses operands separated by the keyword kw into one
// (kw a b ...) form.
func (p *infixParser) variadic(kw string, operand func() (string, error)) (string, error) {
	x, err := operand()
	if err != nil {
		return "", err
	}
	args := []string{x}
	for p.at(kw) {
		p.next()
		y, err := operand()
		if err != nil {
			return "", err
		}
		args = append(args, y)
	}
	if len(args) == 1 {
		return x, nil
	}
	return "(" + kw + " " + strings.Join(args, " ") + ")", nil
}

func (p *infixParser) not() (string, error) {
	if !p.at("not") {
		return p.comparison()
	}
	p.next()
	x, err := p.not()
	if err != nil {
		return "", err
	}
	return "(not " + x + ")", nil
}

var comparisons = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *infixParser) comparison() (string, error) {
	x, err := p.sum()
	if err != nil {
		return "", err
	}
	var parts []string
	for t := p.peek(); t.kind == tokOp && comparisons[t.text]; t = p.peek() {
		p.next()
		y, err := p.sum()
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+t.text+" "+x+" "+y+")")
		x = y
	}
	switch len(parts) {
	case 0:
		return x, nil
	case 1:
		return parts[0], nil
	}
	return "(and " + strings.Join(parts, " ") + ")", nil
}

func (p *infixParser) sum() (string, error) {
	x, err := p.term()
	if err != nil {
		return "", err
	}
	for p.at("+") || p.at("-") {
		op := p.next().text
		y, err := p.term()
		if err != nil {
			return "", err
		}
		x = "(" + op + " " + x + " " + y + ")"
	}
	return x, nil
}

func (p *infixParser) term() (string, error) {
	x, err := p.unary()
	if err != nil {
		return "", err
	}
	for p.at("*") || p.at("/") || p.at("//") || p.at("%") {
		op := p.next().text
		y, err := p.unary()
		if err != nil {
			return "", err
		}
		switch op {
		case "*":
			x = "(* " + x + " " + y + ")"
		case "/":
			x = "(div " + x + " " + y + ")"
		case "//":
			x = "(floor (div " + x + " " + y + "))"
		case "%":
			x = "(mod " + x + " " + y + ")"
		}
	}
	return x, nil
}

func (p *infixParser) unary() (string, error) {
	switch {
	case p.at("-"):
		p.next()
		x, err := p.unary()
		if err != nil {
			return "", err
		}
		return "(- 0 " + x + ")", nil
	case p.at("+"):
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *infixParser) power() (string, error) {
	x, err := p.primary()
	if err != nil || !p.at("**") {
		return x, err
	}
	p.next()
	y, err := p.unary()
	if err != nil {
		return "", err
	}
	return "(** " + x + " " + y + ")", nil
}

func (p *infixParser) primary() (string, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.text, nil
	case tokString:
		return strconv.Quote(t.text), nil
	case tokName:
		switch t.text {
		case "True", "true":
			return "true", nil
		case "False", "false":
			return "false", nil
		case "None":
			return "nil", nil
		case "and", "or", "not", "if", "else":
			return "", p.unexpected(t)
		}
		name := identifier(strings.TrimPrefix(t.text, "math."))
		if !p.at("(") {
			return name, nil
		}
		p.next()
		args, err := p.arguments()
		if err != nil {
			return "", err
		}
		if len(args) == 0 {
			return "(" + name + ")", nil
		}
		return "(" + name + " " + strings.Join(args, " ") + ")", nil
	case tokOp:
		if t.text == "(" {
			x, err := p.expr()
			if err != nil {
				return "", err
			}
			if err := p.expect(")"); err != nil {
				return "", err
			}
			return x, nil
		}
	}
	return "", p.unexpected(t)
}

// arguments parses a call's comma-separated arguments after the opening
// paren, consuming the closing one.
func (p *infixParser) arguments() ([]string, error) {
	var args []string
	if p.at(")") {
		p.next()
		return args, nil
	}
	for {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, x)
		if p.at(",") {
			p.next()
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}
