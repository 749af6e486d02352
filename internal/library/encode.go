package library

import (
	"fmt"
	"slices"

	"pulse-mapper/internal/common"
	"pulse-mapper/internal/pulse"
)

// Encode turns a template tree into a document.
//
// Every distinct template becomes a definition named after its identifier;
// templates without one get a name derived from their kind. Unnamed mapping
// templates below a combinator are written inline as mapped references.
// Definitions are ordered so that each one follows the ones it refers to.
// The root always keeps its own name.
func Encode(root pulse.Template) (*File, error) {
	e := &encoder{
		file:  &File{Version: CurrentVersion},
		names: map[pulse.Template]string{},
		taken: map[string]bool{},
		root:  root,
	}

	e.rootName = e.nameFor(root)

	if _, err := e.define(root); err != nil {
		return nil, err
	}

	return e.file, nil
}

type encoder struct {
	file  *File
	names map[pulse.Template]string
	taken map[string]bool

	root     pulse.Template
	rootName string
}

func (e *encoder) define(t pulse.Template) (string, error) {
	if name, ok := e.names[t]; ok {
		return name, nil
	}

	var def Definition

	switch v := t.(type) {
	case *pulse.FunctionTemplate:
		def.Function = &FunctionDef{
			Expression:   v.Waveform(),
			Duration:     v.DurationExpression(),
			Channel:      channelName(v.ChannelOrder()[0]),
			Measurements: measurementDefs(v.MeasurementDeclarations()),
		}

	case *pulse.PointTemplate:
		pts := &PointsDef{Measurements: measurementDefs(v.MeasurementDeclarations())}
		if order := v.ChannelOrder(); !slices.Equal(order, []string{pulse.DefaultChannel}) {
			pts.Channels = order
		}

		for _, p := range v.Points() {
			pts.Entries = append(pts.Entries, PointEntry{
				Time:          p.Time,
				Values:        p.Values,
				Interpolation: string(p.Interpolation),
			})
		}

		def.Points = pts

	case *pulse.MappingTemplate:
		name, err := e.define(v.Child())
		if err != nil {
			return "", err
		}

		ref := mappedRef(name, v.Remap())
		def.Mapping = &ref

	case *pulse.MultiChannelTemplate:
		refs, err := e.refs(v.Children())
		if err != nil {
			return "", err
		}

		def.MultiChannel = refs

	case *pulse.SequenceTemplate:
		refs, err := e.refs(v.Children())
		if err != nil {
			return "", err
		}

		def.Sequence = refs

	case *pulse.RepetitionTemplate:
		refs, err := e.refs([]pulse.Template{v.Body()})
		if err != nil {
			return "", err
		}

		body, _ := common.First(refs)
		def.Repetition = &RepetitionDef{Body: body, Count: v.Count()}

	default:
		return "", fmt.Errorf("cannot encode template of type %T", t)
	}

	def.Name = e.nameFor(t)
	e.names[t] = def.Name
	e.file.Templates = append(e.file.Templates, def)

	return def.Name, nil
}

func (e *encoder) refs(children []pulse.Template) ([]ChildRef, error) {
	refs := make([]ChildRef, len(children))

	for i, c := range children {
		if m, ok := c.(*pulse.MappingTemplate); ok && m.Identifier() == "" {
			name, err := e.define(m.Child())
			if err != nil {
				return nil, err
			}

			refs[i] = mappedRef(name, m.Remap())

			continue
		}

		name, err := e.define(c)
		if err != nil {
			return nil, err
		}

		refs[i] = ChildRef{Template: name}
	}

	return refs, nil
}

func (e *encoder) nameFor(t pulse.Template) string {
	if t == e.root && e.rootName != "" {
		return e.rootName
	}

	base := t.Identifier()
	if base == "" {
		base = string(t.Kind())
	}

	name := base
	for n := 2; e.taken[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}

	e.taken[name] = true

	return name
}

func mappedRef(name string, r pulse.Remap) ChildRef {
	return ChildRef{
		Template:     name,
		Parameters:   r.Parameters,
		Channels:     r.Channels,
		Measurements: r.Measurements,
		AllowPartial: r.AllowPartialParameters,
	}
}

func channelName(ch string) string {
	if ch == pulse.DefaultChannel {
		return ""
	}

	return ch
}

func measurementDefs(decls []pulse.MeasurementDeclaration) []MeasurementDef {
	if len(decls) == 0 {
		return nil
	}

	defs := make([]MeasurementDef, len(decls))
	for i, d := range decls {
		defs[i] = MeasurementDef{Name: d.Name, Start: d.Start, Length: d.Length}
	}

	return defs
}
