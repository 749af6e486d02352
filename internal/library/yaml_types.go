package library

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"pulse-mapper/internal/expression"
	"pulse-mapper/internal/pulse"
)

// --- ChildRef YAML methods ---

// UnmarshalYAML accepts either a template name or a mapping with a template key.
func (c *ChildRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = ChildRef{Template: node.Value}
		return nil

	case yaml.MappingNode:
		type plain ChildRef

		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}

		*c = ChildRef(p)

		return nil

	default:
		return fmt.Errorf("line %d: expected template name or reference, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML writes a bare reference as its template name.
func (c ChildRef) MarshalYAML() (any, error) {
	if c.IsBare() {
		return c.Template, nil
	}

	type plain ChildRef

	return plain(c), nil
}

// --- MappingList YAML methods ---

// UnmarshalYAML accepts a single mapping or a sequence of mappings.
func (m *MappingList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var single map[string]string
		if err := node.Decode(&single); err != nil {
			return err
		}

		*m = MappingList{single}

		return nil

	case yaml.SequenceNode:
		var list []map[string]string
		if err := node.Decode(&list); err != nil {
			return err
		}

		*m = list

		return nil

	default:
		return fmt.Errorf("line %d: expected mapping or list of mappings, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML outputs a single mapping if length is 1, otherwise a list.
func (m MappingList) MarshalYAML() (any, error) {
	if len(m) == 1 {
		return m[0], nil
	}

	return []map[string]string(m), nil
}

// --- PointEntry YAML methods ---

// UnmarshalYAML decodes [time, value(s), interpolation?].
func (p *PointEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) < 2 || len(node.Content) > 3 {
		return fmt.Errorf("line %d: point must be [time, value] or [time, value, interpolation]", node.Line)
	}

	var entry PointEntry

	if err := node.Content[0].Decode(&entry.Time); err != nil {
		return err
	}

	values := node.Content[1]
	switch values.Kind {
	case yaml.SequenceNode:
		if err := values.Decode(&entry.Values); err != nil {
			return err
		}
	default:
		var v expression.Expression
		if err := values.Decode(&v); err != nil {
			return err
		}

		entry.Values = []expression.Expression{v}
	}

	if len(node.Content) == 3 {
		entry.Interpolation = node.Content[2].Value
	}

	*p = entry

	return nil
}

// MarshalYAML writes the point as a flow sequence, leaving out hold interpolation.
func (p PointEntry) MarshalYAML() (any, error) {
	items := []any{p.Time}

	if len(p.Values) == 1 {
		items = append(items, p.Values[0])
	} else {
		items = append(items, p.Values)
	}

	if p.Interpolation != "" && p.Interpolation != string(pulse.InterpolationHold) {
		items = append(items, p.Interpolation)
	}

	var n yaml.Node
	if err := n.Encode(items); err != nil {
		return nil, err
	}

	n.Style = yaml.FlowStyle

	return &n, nil
}
