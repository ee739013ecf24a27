// ABOUTME: CLI entry point for maude, the governor console
// ABOUTME: Executes the cobra root command and maps failures to a non-zero exit

package main

import (
	"fmt"
	"os"

	// termfix must be imported before any package that imports bubbletea.
	_ "github.com/mauromedda/maude-go/internal/termfix"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
