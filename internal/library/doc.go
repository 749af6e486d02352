// Package library reads and writes YAML documents of named pulse templates.
//
// A document lists template definitions. Each definition has a name and
// exactly one kind (function, points, mapping, multi_channel, sequence or
// repetition). Composite definitions refer to other definitions by name:
//
//	version: "1"
//	templates:
//	  - name: sine
//	    function: {expression: a*sin(omega*t), duration: t_duration}
//	  - name: sine_period
//	    mapping:
//	      template: sine
//	      parameters: {t_duration: 2*pi/omega, omega: omega, a: a}
//
// Validate checks the document structure, Build constructs the templates in
// dependency order and Encode turns a template tree back into a document.
package library
