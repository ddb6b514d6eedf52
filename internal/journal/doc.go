// Package journal records every cleanup run in a small SQLite database so
// runs can be listed later and their backups restored.
package journal
