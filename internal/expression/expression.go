package expression

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"math"
	"slices"
	"strconv"
	"strings"
)

// constants are identifiers with a fixed value. They are never free variables.
var constants = map[string]float64{
	"pi": math.Pi,
	"E":  math.E,
}

// Expression is a parsed arithmetic expression.
// The zero Expression is the constant 0.
type Expression struct {
	src  string
	root ast.Expr
	vars []string
}

// Parse parses src into an Expression.
func Parse(src string) (Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return Expression{}, &Error{Source: src, Err: ErrEmpty}
	}

	node, err := parser.ParseExpr(trimmed)
	if err != nil {
		return Expression{}, &Error{Source: src, Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}

	if err := check(node); err != nil {
		return Expression{}, &Error{Source: src, Err: err}
	}

	return Expression{src: trimmed, root: node, vars: collectVariables(node)}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) Expression {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}

	return e
}

// Constant returns an expression with the fixed value v. v must be finite.
func Constant(v float64) Expression {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("expression: constant %v is not finite", v))
	}

	lit := &ast.BasicLit{Kind: token.FLOAT, Value: strconv.FormatFloat(math.Abs(v), 'g', -1, 64)}
	if v < 0 {
		return fromNode(&ast.UnaryExpr{Op: token.SUB, X: lit})
	}

	return fromNode(lit)
}

// Variable returns an expression consisting of the single free variable name.
func Variable(name string) Expression {
	return fromNode(&ast.Ident{Name: name})
}

// Sum returns the expression terms[0] + terms[1] + ...; the empty sum is 0.
func Sum(terms ...Expression) Expression {
	if len(terms) == 0 {
		return Constant(0)
	}

	if len(terms) == 1 {
		return terms[0]
	}

	node := terms[0].node()
	for _, t := range terms[1:] {
		node = binary(node, token.ADD, t.node())
	}

	return fromNode(node)
}

// Product returns the expression a * b.
func Product(a, b Expression) Expression {
	return fromNode(binary(a.node(), token.MUL, b.node()))
}

// String returns the source form of the expression.
func (e Expression) String() string {
	if e.root == nil {
		return "0"
	}

	return e.src
}

// IsZero reports whether e is the zero Expression.
func (e Expression) IsZero() bool {
	return e.root == nil
}

// IsConstant reports whether e has no free variables.
func (e Expression) IsConstant() bool {
	return len(e.vars) == 0
}

// Variables returns the sorted free variables of e.
func (e Expression) Variables() []string {
	return slices.Clone(e.vars)
}

// References reports whether name is a free variable of e.
func (e Expression) References(name string) bool {
	_, found := slices.BinarySearch(e.vars, name)
	return found
}

// Evaluate computes the value of e with the free variables taken from values.
func (e Expression) Evaluate(values map[string]float64) (float64, error) {
	if e.root == nil {
		return 0, nil
	}

	v, err := eval(e.root, values)
	if err != nil {
		return 0, &Error{Source: e.String(), Err: err}
	}

	return v, nil
}

// Substitute returns a new expression in which every free variable that has
// an entry in bindings is replaced by the bound expression.
func (e Expression) Substitute(bindings map[string]Expression) Expression {
	if e.root == nil || len(bindings) == 0 {
		return e
	}

	touched := false

	for _, v := range e.vars {
		if _, ok := bindings[v]; ok {
			touched = true
			break
		}
	}

	if !touched {
		return e
	}

	// A bare variable is replaced wholesale, keeping the replacement's source form.
	if ident, ok := e.root.(*ast.Ident); ok {
		return bindings[ident.Name]
	}

	return fromNode(substitute(e.root, bindings))
}

func (e Expression) node() ast.Expr {
	if e.root == nil {
		return &ast.BasicLit{Kind: token.INT, Value: "0"}
	}

	return e.root
}

func fromNode(node ast.Expr) Expression {
	return Expression{src: render(node), root: node, vars: collectVariables(node)}
}

func render(node ast.Expr) string {
	var buf bytes.Buffer

	if err := printer.Fprint(&buf, token.NewFileSet(), node); err != nil {
		return fmt.Sprintf("%v", node)
	}

	return buf.String()
}

func binary(x ast.Expr, op token.Token, y ast.Expr) ast.Expr {
	return &ast.BinaryExpr{
		X:  operand(clone(x), op.Precedence(), false),
		Op: op,
		Y:  operand(clone(y), op.Precedence(), true),
	}
}

// operand parenthesises node when printing it next to an operator of the
// given precedence would change its meaning.
func operand(node ast.Expr, prec int, right bool) ast.Expr {
	bin, ok := node.(*ast.BinaryExpr)
	if !ok {
		return node
	}

	p := bin.Op.Precedence()
	if p < prec || (right && p == prec) {
		return &ast.ParenExpr{X: node}
	}

	return node
}

func clone(node ast.Expr) ast.Expr {
	return substitute(node, nil)
}

func substitute(node ast.Expr, bindings map[string]Expression) ast.Expr {
	switch n := node.(type) {
	case *ast.Ident:
		if repl, ok := bindings[n.Name]; ok {
			return atom(clone(repl.node()))
		}

		return &ast.Ident{Name: n.Name}
	case *ast.BasicLit:
		return &ast.BasicLit{Kind: n.Kind, Value: n.Value}
	case *ast.ParenExpr:
		return &ast.ParenExpr{X: substitute(n.X, bindings)}
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Op: n.Op, X: substitute(n.X, bindings)}
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{X: substitute(n.X, bindings), Op: n.Op, Y: substitute(n.Y, bindings)}
	case *ast.CallExpr:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substitute(a, bindings)
		}

		fun, _ := n.Fun.(*ast.Ident)

		return &ast.CallExpr{Fun: &ast.Ident{Name: fun.Name}, Args: args}
	default:
		return node
	}
}

// atom wraps node in parentheses unless it already binds tighter than any operator.
func atom(node ast.Expr) ast.Expr {
	switch node.(type) {
	case *ast.Ident, *ast.BasicLit, *ast.ParenExpr, *ast.CallExpr:
		return node
	default:
		return &ast.ParenExpr{X: node}
	}
}

func collectVariables(root ast.Expr) []string {
	seen := map[string]struct{}{}

	var walk func(ast.Expr)

	walk = func(node ast.Expr) {
		switch n := node.(type) {
		case *ast.Ident:
			if _, isConst := constants[n.Name]; !isConst {
				seen[n.Name] = struct{}{}
			}
		case *ast.ParenExpr:
			walk(n.X)
		case *ast.UnaryExpr:
			walk(n.X)
		case *ast.BinaryExpr:
			walk(n.X)
			walk(n.Y)
		case *ast.CallExpr:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}

	walk(root)

	vars := make([]string, 0, len(seen))
	for name := range seen {
		vars = append(vars, name)
	}

	slices.Sort(vars)

	return vars
}

func check(node ast.Expr) error {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return fmt.Errorf("%w: literal %s", ErrUnsupported, n.Value)
		}

		if _, err := parseNumber(n); err != nil {
			return fmt.Errorf("%w: literal %s", ErrSyntax, n.Value)
		}

		return nil
	case *ast.Ident:
		return nil
	case *ast.ParenExpr:
		return check(n.X)
	case *ast.UnaryExpr:
		if n.Op != token.ADD && n.Op != token.SUB {
			return fmt.Errorf("%w: unary operator %s", ErrUnsupported, n.Op)
		}

		return check(n.X)
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO, token.REM:
		default:
			return fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
		}

		if err := check(n.X); err != nil {
			return err
		}

		return check(n.Y)
	case *ast.CallExpr:
		return checkCall(n)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, node)
	}
}

func checkCall(n *ast.CallExpr) error {
	ident, ok := n.Fun.(*ast.Ident)
	if !ok {
		return fmt.Errorf("%w: call target must be a function name", ErrUnsupported)
	}

	fn, ok := functions[ident.Name]
	if !ok {
		return fmt.Errorf("%w: unknown function %q", ErrUnsupported, ident.Name)
	}

	if n.Ellipsis.IsValid() {
		return fmt.Errorf("%w: variadic call of %s", ErrUnsupported, ident.Name)
	}

	if fn.arity >= 0 && len(n.Args) != fn.arity {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrSyntax, ident.Name, fn.arity, len(n.Args))
	}

	if fn.arity < 0 && len(n.Args) == 0 {
		return fmt.Errorf("%w: %s expects at least one argument", ErrSyntax, ident.Name)
	}

	for _, a := range n.Args {
		if err := check(a); err != nil {
			return err
		}
	}

	return nil
}

func parseNumber(lit *ast.BasicLit) (float64, error) {
	if lit.Kind == token.INT {
		i, err := strconv.ParseInt(lit.Value, 0, 64)
		if err == nil {
			return float64(i), nil
		}
	}

	return strconv.ParseFloat(lit.Value, 64)
}
