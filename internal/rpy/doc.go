// Package rpy understands the parts of Ren'Py script files the cleaner
// needs: locating script files in a project, splitting translation files
// into "translate <language> <id>:" blocks, and rewriting those blocks by
// commenting them out or deleting them. Text outside the touched blocks is
// copied byte for byte.
package rpy
