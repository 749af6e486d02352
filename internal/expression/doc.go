// Package expression implements the arithmetic expressions used for pulse
// durations, parameter mappings and measurement windows.
//
// Expressions use Go expression syntax restricted to arithmetic:
//
//	a*sin(omega*t)
//	2*pi/omega
//	t_meas/2 + offset
//
// # Supported syntax
//
//   - Integer and floating point literals ("3", "1.5e-9")
//   - Identifiers, which become free variables
//   - Binary operators + - * / % and unary + -
//   - Parentheses
//   - Calls into a fixed table of math functions (sin, cos, exp, pow, min, ...)
//
// The identifiers "pi" and "E" are reserved constants and never free variables.
//
// Expressions are immutable. Substitute builds a new expression with free
// variables replaced by other expressions, which is how mapped templates
// express their durations in the outer parameter namespace.
package expression
