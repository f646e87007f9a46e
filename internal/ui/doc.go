// Package ui holds the terminal styling shared by sysrpc's console output:
// a small ANSI color palette, status symbols and a renderer that drops
// colors when the output is not a terminal or --no-color is set.
package ui
