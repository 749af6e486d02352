// Package pulse implements composable pulse templates and their name resolution.
//
// A template declares three namespaces: parameters, channels and measurements.
// Leaf templates (FunctionTemplate, PointTemplate) declare them directly.
// Composite templates derive them from their children:
//
//   - MappingTemplate renames channels and measurements and computes the child's
//     parameters from expressions over its own parameters.
//   - MultiChannelTemplate places children with disjoint channels side by side.
//   - SequenceTemplate plays children one after another.
//   - RepetitionTemplate plays one child a number of times.
//
// Validation happens in two passes. Name-set consistency is checked when a
// template is constructed and reported as a typed error. Numeric consistency
// (measurement windows inside the template, equal durations of channel
// siblings, repetition counts) needs concrete parameter values and is reported
// by Instantiate as coded diagnostics.
//
// Templates are immutable. All query methods return copies, so templates can be
// shared between goroutines without coordination.
package pulse
