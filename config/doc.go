// Package config loads run settings from a `<stem>.cfg` file, command-line
// flags and VECKNN_* environment variables.
//
// The file holds one key=value pair per line. Keys are the flag names with
// dashes written as underscores:
//
//	inputs=4
//	classes=3
//	patterns=150
//	tests=50
//	k=1..15
//	no_pruning=true
//
// Flags take precedence over the environment, which takes precedence over the
// file. Unknown keys in the file are rejected.
package config
