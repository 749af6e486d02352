package library

import (
	"fmt"
	"slices"
	"strings"

	"pulse-mapper/internal/common"
	"pulse-mapper/internal/diagnostic"
	"pulse-mapper/internal/match"
	"pulse-mapper/internal/pulse"
)

// maxSuggestions bounds the "did you mean" hints of unknown references.
const maxSuggestions = 3

// Validate validates the structure of a library document.
// It checks names, kinds, required fields and references; it does not build
// templates, so mapping coverage and channel collisions are left to Build.
func Validate(f *File) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("file_is_nil", "library file is nil", "", "")
		return res
	}

	if f.Version != "" && f.Version != CurrentVersion {
		res.AddError("unsupported_version", fmt.Sprintf("unsupported version %q", f.Version), "", "")
	}

	index := map[string]int{}

	for i := range f.Templates {
		def := &f.Templates[i]
		where := definitionPath(def, i)

		if def.Name == "" {
			res.AddError("missing_name", "template has no name", where, "")
		} else if _, dup := index[def.Name]; dup {
			res.AddError("duplicate_template", fmt.Sprintf("duplicate template %q", def.Name), where, def.Name)
		} else {
			index[def.Name] = i
		}

		kinds := def.Kinds()

		switch {
		case common.IsEmpty(kinds):
			res.AddError("missing_kind", "template defines no kind", where, "")
		case common.IsSingle(kinds):
			validateDefinition(res, where, def)
		default:
			names := make([]string, len(kinds))
			for k, kind := range kinds {
				names[k] = string(kind)
			}

			res.AddError("multiple_kinds",
				fmt.Sprintf("template defines several kinds: %s", strings.Join(names, ", ")), where, "")
		}
	}

	known := make([]string, 0, len(index))
	for name := range index {
		known = append(known, name)
	}

	slices.Sort(known)

	unknown := false

	for i := range f.Templates {
		def := &f.Templates[i]
		for _, ref := range def.Children() {
			if ref.Template == "" {
				continue
			}

			if _, ok := index[ref.Template]; !ok {
				unknown = true

				res.AddErrorWithSuggestions("unknown_template",
					fmt.Sprintf("template %q is not defined", ref.Template),
					definitionPath(def, i), ref.Template, match.Suggest(ref.Template, known, maxSuggestions))
			}
		}
	}

	// Cycles are only meaningful once every reference resolves.
	if !unknown && !res.HasErrors() {
		validateCycles(res, f, index)
	}

	return res
}

func definitionPath(def *Definition, i int) string {
	if def.Name != "" {
		return def.Name
	}

	return fmt.Sprintf("templates[%d]", i)
}

func validateDefinition(res *diagnostic.Diagnostics, where string, def *Definition) {
	switch {
	case def.Function != nil:
		fn := def.Function
		if fn.Expression.IsZero() {
			res.AddError("missing_field", "function needs an expression", where, "expression")
		}

		if fn.Duration.IsZero() {
			res.AddError("missing_field", "function needs a duration", where, "duration")
		}

		validateMeasurements(res, where, fn.Measurements)

	case def.Points != nil:
		if len(def.Points.Entries) == 0 {
			res.AddError("missing_field", "points need at least one entry", where, "entries")
		}

		for k, e := range def.Points.Entries {
			if _, err := pulse.ParseInterpolation(e.Interpolation); err != nil {
				res.AddErrorCause("invalid_interpolation", where, fmt.Sprintf("entries[%d]", k), err)
			}
		}

		validateMeasurements(res, where, def.Points.Measurements)

	case def.Repetition != nil:
		if def.Repetition.Count.IsZero() {
			res.AddError("missing_field", "repetition needs a count", where, "count")
		}
	}

	children := def.Children()
	if common.IsEmpty(children) && (def.MultiChannel != nil || def.Sequence != nil) {
		res.AddError("no_subtemplates", "composite template has no subtemplates", where, "")
	}

	for k, ref := range children {
		if ref.Template == "" {
			res.AddError("missing_field", fmt.Sprintf("subtemplate %d names no template", k), where, "template")
		}

		warnIdentity(res, where, k, "channels", ref.Channels)
		warnIdentity(res, where, k, "measurements", ref.Measurements)
	}
}

// warnIdentity flags a rename map that maps every name onto itself.
func warnIdentity(res *diagnostic.Diagnostics, where string, k int, field string, m map[string]string) {
	if len(m) == 0 {
		return
	}

	for from, to := range m {
		if from != to {
			return
		}
	}

	res.AddWarning("identity_mapping",
		fmt.Sprintf("subtemplate %d: %s mapping renames nothing", k, field), where, field)
}

func validateMeasurements(res *diagnostic.Diagnostics, where string, defs []MeasurementDef) {
	for k, m := range defs {
		if m.Name == "" {
			res.AddError("missing_field", fmt.Sprintf("measurement %d has no name", k), where, "name")
		}
		if m.Length.IsZero() {
			res.AddError("missing_field", fmt.Sprintf("measurement %d has no length", k), where, "length")
		}
	}
}

func validateCycles(res *diagnostic.Diagnostics, f *File, index map[string]int) {
	order, err := topoSort(len(f.Templates), func(i int) []int {
		return dependencies(&f.Templates[i], index)
	})
	if err == nil {
		return
	}

	built := make(map[int]bool, len(order))
	for _, i := range order {
		built[i] = true
	}

	for i := range f.Templates {
		if !built[i] {
			def := &f.Templates[i]
			res.AddError("reference_cycle", "template takes part in or depends on a reference cycle",
				definitionPath(def, i), def.Name)
		}
	}
}

func dependencies(def *Definition, index map[string]int) []int {
	var deps []int

	for _, ref := range def.Children() {
		if j, ok := index[ref.Template]; ok {
			deps = append(deps, j)
		}
	}

	return deps
}
