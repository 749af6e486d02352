package library

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"pulse-mapper/internal/expression"
	"pulse-mapper/internal/pulse"
)

// ErrInvalidDocument is returned by Build when Validate reports errors.
var ErrInvalidDocument = errors.New("invalid library document")

// BuildError reports the definition whose construction failed.
type BuildError struct {
	Template string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Template, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Library holds the templates built from one document.
type Library struct {
	names     []string
	templates map[string]pulse.Template
}

// Get returns the template with the given name.
func (l *Library) Get(name string) (pulse.Template, bool) {
	t, ok := l.templates[name]
	return t, ok
}

// Names returns the template names in document order.
func (l *Library) Names() []string {
	return slices.Clone(l.names)
}

// Len returns the number of templates.
func (l *Library) Len() int {
	return len(l.names)
}

// Build validates the document and constructs every template in dependency order.
func Build(f *File) (*Library, error) {
	if diags := Validate(f); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, diags.Error())
	}

	index := make(map[string]int, len(f.Templates))
	for i := range f.Templates {
		index[f.Templates[i].Name] = i
	}

	order, err := topoSort(len(f.Templates), func(i int) []int {
		return dependencies(&f.Templates[i], index)
	})
	if err != nil {
		return nil, err
	}

	lib := &Library{templates: make(map[string]pulse.Template, len(f.Templates))}

	for _, i := range order {
		def := &f.Templates[i]

		t, err := lib.build(def)
		if err != nil {
			return nil, &BuildError{Template: def.Name, Err: err}
		}

		lib.templates[def.Name] = pulse.Identify(t, def.Name)
	}

	for i := range f.Templates {
		lib.names = append(lib.names, f.Templates[i].Name)
	}

	return lib, nil
}

func (l *Library) build(def *Definition) (pulse.Template, error) {
	switch {
	case def.Function != nil:
		fn := def.Function

		opts := []pulse.Option{pulse.WithMeasurements(measurementDecls(fn.Measurements)...)}
		if fn.Channel != "" {
			opts = append(opts, pulse.WithChannels(fn.Channel))
		}

		return pulse.NewFunction(fn.Expression.String(), fn.Duration.String(), opts...)

	case def.Points != nil:
		pts := def.Points

		points := make([]pulse.Point, len(pts.Entries))
		for i, e := range pts.Entries {
			points[i] = pulse.Point{Time: e.Time, Values: e.Values, Interpolation: pulse.Interpolation(e.Interpolation)}
		}

		opts := []pulse.Option{pulse.WithMeasurements(measurementDecls(pts.Measurements)...)}
		if len(pts.Channels) > 0 {
			opts = append(opts, pulse.WithChannels(pts.Channels...))
		}

		return pulse.NewPoints(points, opts...)

	case def.Mapping != nil:
		child, r, err := l.resolve(*def.Mapping)
		if err != nil {
			return nil, err
		}

		return pulse.WrapRemap(child, r)

	case def.MultiChannel != nil:
		subs, err := l.subtemplates(def.MultiChannel)
		if err != nil {
			return nil, err
		}

		return pulse.CombineChannels(subs...)

	case def.Sequence != nil:
		subs, err := l.subtemplates(def.Sequence)
		if err != nil {
			return nil, err
		}

		return pulse.Sequence(subs...)

	case def.Repetition != nil:
		subs, err := l.subtemplates([]ChildRef{def.Repetition.Body})
		if err != nil {
			return nil, err
		}

		return pulse.Repeat(subs[0], def.Repetition.Count.String())

	default:
		return nil, fmt.Errorf("template %q defines no kind", def.Name)
	}
}

func (l *Library) subtemplates(refs []ChildRef) ([]pulse.Subtemplate, error) {
	subs := make([]pulse.Subtemplate, len(refs))

	for i, ref := range refs {
		child, r, err := l.resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("subtemplate %d: %w", i, err)
		}

		if ref.IsBare() {
			subs[i] = pulse.Use(child)
		} else {
			subs[i] = pulse.SubRemap(child, r)
		}
	}

	return subs, nil
}

// resolve looks up the referenced template and merges explicit and inferred mappings.
func (l *Library) resolve(ref ChildRef) (pulse.Template, pulse.Remap, error) {
	child, ok := l.templates[ref.Template]
	if !ok {
		return nil, pulse.Remap{}, fmt.Errorf("template %q is not built", ref.Template)
	}

	r := ref.Remap()
	if ref.Mapping.IsEmpty() {
		return child, r, nil
	}

	inferred, err := pulse.InferRemap(child, ref.Mapping...)
	if err != nil {
		return nil, pulse.Remap{}, err
	}

	for _, slot := range []struct {
		ns       pulse.Namespace
		explicit *map[string]string
		inferred map[string]string
	}{
		{pulse.NamespaceParameter, &r.Parameters, inferred.Parameters},
		{pulse.NamespaceChannel, &r.Channels, inferred.Channels},
		{pulse.NamespaceMeasurement, &r.Measurements, inferred.Measurements},
	} {
		if slot.inferred == nil {
			continue
		}

		if *slot.explicit != nil {
			return nil, pulse.Remap{}, &pulse.AmbiguousMappingError{
				Keys:       slices.Sorted(maps.Keys(slot.inferred)),
				Candidates: []pulse.Namespace{slot.ns},
			}
		}

		*slot.explicit = slot.inferred
	}

	return child, r, nil
}

func measurementDecls(defs []MeasurementDef) []pulse.MeasurementDeclaration {
	decls := make([]pulse.MeasurementDeclaration, len(defs))
	for i, m := range defs {
		decls[i] = pulse.MeasurementDeclaration{Name: m.Name, Start: orZero(m.Start), Length: m.Length}
	}

	return decls
}

// orZero makes an omitted start explicit.
func orZero(e expression.Expression) expression.Expression {
	if e.IsZero() {
		return expression.Constant(0)
	}

	return e
}
