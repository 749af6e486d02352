package expression

import (
	"fmt"
	"go/ast"
	"go/token"
	"math"
)

type function struct {
	arity int // -1 means one or more arguments
	apply func(args []float64) float64
}

func unary(f func(float64) float64) function {
	return function{arity: 1, apply: func(args []float64) float64 { return f(args[0]) }}
}

var functions = map[string]function{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log2":  unary(math.Log2),
	"log10": unary(math.Log10),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"atan2": {arity: 2, apply: func(a []float64) float64 { return math.Atan2(a[0], a[1]) }},
	"pow":   {arity: 2, apply: func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"min": {arity: -1, apply: func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}

		return m
	}},
	"max": {arity: -1, apply: func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}

		return m
	}},
}

// IsFunction reports whether name is a function of the expression language.
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}

func eval(node ast.Expr, values map[string]float64) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		return parseNumber(n)
	case *ast.Ident:
		if v, ok := constants[n.Name]; ok {
			return v, nil
		}

		v, ok := values[n.Name]
		if !ok {
			return 0, &UnboundVariableError{Name: n.Name}
		}

		return v, nil
	case *ast.ParenExpr:
		return eval(n.X, values)
	case *ast.UnaryExpr:
		x, err := eval(n.X, values)
		if err != nil {
			return 0, err
		}

		if n.Op == token.SUB {
			return -x, nil
		}

		return x, nil
	case *ast.BinaryExpr:
		return evalBinary(n, values)
	case *ast.CallExpr:
		fun, _ := n.Fun.(*ast.Ident)

		fn := functions[fun.Name]

		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := eval(a, values)
			if err != nil {
				return 0, err
			}

			args[i] = v
		}

		return fn.apply(args), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupported, node)
	}
}

func evalBinary(n *ast.BinaryExpr, values map[string]float64) (float64, error) {
	x, err := eval(n.X, values)
	if err != nil {
		return 0, err
	}

	y, err := eval(n.Y, values)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		return x / y, nil
	case token.REM:
		return math.Mod(x, y), nil
	default:
		return 0, fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
	}
}
