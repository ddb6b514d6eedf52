// Package processor contains the core business logic of a cleanup run. It
// takes the orphaned translation IDs (from a cleaned lint report or from
// detection), rewrites every Ren'Py script of a project concurrently,
// backs up the files it changes and records the run in the journal. This
// package is the coordinator between all other components and is shared by
// the CLI and the GUI.
package processor
