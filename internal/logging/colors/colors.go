// Package colors centralizes the ANSI escape sequences used for console output.
package colors

const (
	Reset = "\033[0m"

	Red         = "\033[31m"
	Green       = "\033[32m"
	Yellow      = "\033[33m"
	BrightWhite = "\033[97m"
)
