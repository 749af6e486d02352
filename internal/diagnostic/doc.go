// Package diagnostic provides coded errors, warnings and infos collected
// while validating template documents and while instantiating templates
// against concrete parameter values.
//
// Key capabilities:
//   - Stable diagnostic codes ("out_of_bounds_measurement", "unknown_template", ...)
//   - Location by template path and offending name
//   - Optional cause errors, so callers can use errors.Is on the combined error
package diagnostic
