// Package backup keeps copies of translation files before the cleaner
// rewrites them, one snapshot directory per run, and copies them back on
// request.
package backup
