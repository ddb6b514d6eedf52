// Package detect finds orphaned translations without a lint report. It
// collects what the game scripts still say, then reports the translate
// blocks of a language that no script references any more.
package detect
