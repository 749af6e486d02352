package expression

import (
	"fmt"
	"go/ast"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts a scalar, either a number or an expression string.
func (e *Expression) UnmarshalYAML(node *yaml.Node) error {
	if node.ShortTag() == "!!null" {
		*e = Expression{}
		return nil
	}

	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected expression scalar, got %v", node.Line, node.Kind)
	}

	parsed, err := Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*e = parsed

	return nil
}

// MarshalYAML emits plain numeric literals as numbers and everything else as strings.
func (e Expression) MarshalYAML() (any, error) {
	if e.root == nil {
		return 0, nil
	}

	if lit, ok := e.root.(*ast.BasicLit); ok {
		v, err := parseNumber(lit)
		if err == nil {
			return v, nil
		}
	}

	return e.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (e Expression) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Expression) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*e = parsed

	return nil
}
