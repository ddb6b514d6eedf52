// Package logging configures the global zerolog logger.
package logging
