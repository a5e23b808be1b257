package config

import (
	"fmt"
	"os"
	"strings"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// ExitOnError exits through Exitf when err is non-nil, naming any missing
// required variables.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	if missing := MissingVariables(err); len(missing) > 0 {
		Exitf("configuration error: missing required environment variables: %s", strings.Join(missing, ", "))
		return
	}
	Exitf("configuration error: %v", err)
}
