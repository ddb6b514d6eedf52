// Package cli provides the command-line interface of orphanclean: the
// cobra commands, flag parsing and configuration management with viper.
package cli
