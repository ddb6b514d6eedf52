// Package report writes YAML reports of cleanup runs.
package report
