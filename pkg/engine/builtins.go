package engine

import (
	"fmt"
	"math"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms zoning expression source before passing it
// to zygomys. It performs two transformations:
//
//  1. Kebab-case to underscore: lot-width -> lot_width
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  2. ; line comments are dropped. A comment after the last form would
//     leave the begin wrapper without a value.
//
// Both transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			for i < len(b) && b[i] != '\n' {
				i++
			}
			continue
		}
		// Only when the hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case nil:
		return 0, fmt.Errorf("expected number, got nothing")
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func floatArgs(name string, args []zygo.Sexp, min int) ([]float64, error) {
	if len(args) < min {
		return nil, fmt.Errorf("%s: expected at least %d argument(s), got %d", name, min, len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the numeric helpers zoning expressions use.
func registerBuiltins(env *zygo.Zlisp) {

	// (min a b ...) and (max a b ...)
	reduce := func(pick func(a, b float64) float64) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			fs, err := floatArgs(name, args, 1)
			if err != nil {
				return zygo.SexpNull, err
			}
			v := fs[0]
			for _, f := range fs[1:] {
				v = pick(v, f)
			}
			return &zygo.SexpFloat{Val: v}, nil
		}
	}
	env.AddFunction("min", reduce(math.Min))
	env.AddFunction("max", reduce(math.Max))

	// (floor x), (ceil x), (abs x)
	unary := func(fn func(float64) float64) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			fs, err := floatArgs(name, args, 1)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &zygo.SexpFloat{Val: fn(fs[0])}, nil
		}
	}
	env.AddFunction("floor", unary(math.Floor))
	env.AddFunction("ceil", unary(math.Ceil))
	env.AddFunction("abs", unary(math.Abs))

	// (div a b) always divides as floats; infix / translates to it.
	env.AddFunction("div", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		fs, err := floatArgs(name, args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(fs) != 2 {
			return zygo.SexpNull, fmt.Errorf("div: expected 2 arguments, got %d", len(fs))
		}
		if fs[1] == 0 {
			return zygo.SexpNull, fmt.Errorf("div: division by zero")
		}
		return &zygo.SexpFloat{Val: fs[0] / fs[1]}, nil
	})

	// (round x) or (round x digits)
	env.AddFunction("round", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		fs, err := floatArgs(name, args, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(fs) == 1 {
			return &zygo.SexpFloat{Val: math.Round(fs[0])}, nil
		}
		return &zygo.SexpFloat{Val: Round(fs[0], int(fs[1]))}, nil
	})
}

// Round rounds v to digits decimal places.
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
