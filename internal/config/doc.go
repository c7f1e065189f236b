// Package config loads bextract configuration from local and global YAML
// files with precedence rules. CLI code maps flags and files into engine and
// scan options.
package config
