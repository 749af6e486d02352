package pulse

import (
	"maps"
	"slices"
)

// Subtemplate is a child of a combinator, optionally wrapped in a mapping.
type Subtemplate struct {
	template Template
	opts     []MappingOption
	wrapped  bool
}

// Use passes t to a combinator as is.
func Use(t Template) Subtemplate {
	return Subtemplate{template: t}
}

// Sub passes t to a combinator wrapped in a mapping built from opts.
func Sub(t Template, opts ...MappingOption) Subtemplate {
	return Subtemplate{template: t, opts: opts, wrapped: true}
}

// SubRemap passes t to a combinator wrapped in a mapping built from r.
func SubRemap(t Template, r Remap) Subtemplate {
	return Sub(t, func(c *mappingConfig) { c.remap = r.clone() })
}

func (s Subtemplate) resolve() (Template, error) {
	if !s.wrapped {
		return s.template, nil
	}

	return Wrap(s.template, s.opts...)
}

func resolveAll(children []Subtemplate) ([]Template, error) {
	if len(children) == 0 {
		return nil, ErrNoSubtemplates
	}

	out := make([]Template, len(children))

	for i, c := range children {
		t, err := c.resolve()
		if err != nil {
			return nil, err
		}

		out[i] = t
	}

	return out, nil
}

// InferRemap classifies untyped mappings by their keys.
//
// A mapping whose keys all belong to exactly one of child's parameter, channel
// or measurement names is taken as the mapping of that namespace. A mapping that
// fits none, fits several, or repeats a namespace already taken fails with
// *AmbiguousMappingError. Empty mappings are ignored.
func InferRemap(child Template, args ...map[string]string) (Remap, error) {
	namespaces := []struct {
		ns    Namespace
		names NameSet
	}{
		{NamespaceParameter, child.ParameterNames()},
		{NamespaceChannel, child.DefinedChannels()},
		{NamespaceMeasurement, child.MeasurementNames()},
	}

	var r Remap

	for _, arg := range args {
		if len(arg) == 0 {
			continue
		}

		keys := slices.Sorted(maps.Keys(arg))

		var candidates []Namespace

		for _, n := range namespaces {
			if len(NewNameSet(keys...).minus(n.names)) == 0 {
				candidates = append(candidates, n.ns)
			}
		}

		if len(candidates) != 1 {
			return Remap{}, &AmbiguousMappingError{Keys: keys, Candidates: candidates}
		}

		var slot *map[string]string

		switch candidates[0] {
		case NamespaceParameter:
			slot = &r.Parameters
		case NamespaceChannel:
			slot = &r.Channels
		case NamespaceMeasurement:
			slot = &r.Measurements
		}

		if *slot != nil {
			return Remap{}, &AmbiguousMappingError{Keys: keys, Candidates: candidates}
		}

		*slot = maps.Clone(arg)
	}

	return r, nil
}
