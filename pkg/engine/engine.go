// Package engine evaluates zoning conditions and expressions. Each
// evaluation runs in a fresh sandboxed zygomys environment with the
// building and parcel variables injected as globals.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, an undefined variable or a type error.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Vars holds the variables visible to an expression. Values may be
// float64, int, int64, bool or string.
type Vars map[string]any

// Truth is the three-valued outcome of a condition.
type Truth int

const (
	Maybe Truth = iota
	True
	False
)

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "maybe"
}

// Engine evaluates expressions. It is safe for concurrent use; each call
// creates its own sandbox.
type Engine struct {
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the hard limit for a single evaluation.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Eval evaluates source with vars bound as globals and returns the value
// of the last expression. Source is either an s-expression or a Python
// style infix expression such as "lot_width * 0.1 if corner else 5".
//
// Return semantics:
//   - On success: returns value + nil error
//   - On parse/eval failure: returns nil + EvalError
//   - On fatal failure (timeout, cancellation, panic): returns nil + error
func (e *Engine) Eval(ctx context.Context, source string, vars Vars) (zygo.Sexp, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation cancelled: %w", err)
	}
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		v, err := e.evaluate(source, vars)
		ch <- evalResult{value: v, err: err}
	}()

	return waitWithTimeout(ctx, ch, e.timeout)
}

// Number evaluates source and converts the result to a float64.
func (e *Engine) Number(ctx context.Context, source string, vars Vars) (float64, error) {
	v, err := e.Eval(ctx, source, vars)
	if err != nil {
		return 0, err
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, EvalError{Message: err.Error()}
	}
	return f, nil
}

// Condition evaluates source as a condition. Anything that does not
// evaluate cleanly to a boolean (unknown variables, type errors, non-bool
// results) is Maybe. Only fatal failures return an error.
func (e *Engine) Condition(ctx context.Context, source string, vars Vars) (Truth, error) {
	v, err := e.Eval(ctx, source, vars)
	if err != nil {
		if IsEvalError(err) {
			return Maybe, nil
		}
		return Maybe, err
	}
	b, ok := v.(*zygo.SexpBool)
	if !ok {
		return Maybe, nil
	}
	if b.Val {
		return True, nil
	}
	return False, nil
}

// IsEvalError reports whether err is a non-fatal evaluation error.
func IsEvalError(err error) bool {
	_, ok := err.(EvalError)
	return ok
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, vars Vars) (zygo.Sexp, error) {
	if strings.TrimSpace(source) == "" {
		return nil, EvalError{Message: "empty expression"}
	}

	// Sandbox mode prevents expressions from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env)
	if err := bindVars(env, vars); err != nil {
		return nil, err
	}

	program := preprocessSource(source)
	if !isSExpression(source) {
		translated, err := translateInfix(source)
		if err != nil {
			return nil, err
		}
		program = translated
	}

	// zygomys yields nothing for a program that is a lone atom, so the
	// program always runs inside a begin form.
	if err := env.LoadString("(begin " + program + "\n)"); err != nil {
		return nil, parseZygomysError(err)
	}
	v, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err)
	}
	return v, nil
}

// bindVars installs vars as globals in sorted order so evaluation is
// deterministic.
func bindVars(env *zygo.Zlisp, vars Vars) error {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s, err := toSexp(vars[name])
		if err != nil {
			return EvalError{Message: fmt.Sprintf("variable %s: %v", name, err)}
		}
		env.AddGlobal(identifier(name), s)
	}
	return nil
}

func toSexp(v any) (zygo.Sexp, error) {
	switch x := v.(type) {
	case float64:
		return &zygo.SexpFloat{Val: x}, nil
	case float32:
		return &zygo.SexpFloat{Val: float64(x)}, nil
	case int:
		return &zygo.SexpInt{Val: int64(x)}, nil
	case int64:
		return &zygo.SexpInt{Val: x}, nil
	case bool:
		return &zygo.SexpBool{Val: x}, nil
	case string:
		return &zygo.SexpStr{S: x}, nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// identifier maps a variable name to the form preprocessSource produces.
func identifier(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into an EvalError, extracting
// the line number when the message carries one.
func parseZygomysError(err error) EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
		}
	}
	return EvalError{Message: strings.TrimSpace(msg)}
}
