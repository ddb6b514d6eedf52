// Package lint turns Ren'Py lint reports into ID files. An ID file is the
// plain list of orphaned translation identifiers separated by commas, which
// is what the processor consumes. Hand-written ID files use the same format.
package lint
