// Package bextract provides the command-line interface for bextract.
// It configures subcommands (scan, demo, recorders, config, etc.), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/bextract/cmd/bextract"
//	func main() { bextract.Execute() }
package bextract
