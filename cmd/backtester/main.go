package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ridopark/quantback/internal/kernelerr"
	"github.com/spf13/cobra"
)

// Exit codes per spec.md §6: 0 success, 1 internal error, 2 invalid config.
const (
	exitSuccess       = 0
	exitInternalError = 1
	exitInvalidConfig = 2
)

func main() {
	root := &cobra.Command{
		Use:   "backtester",
		Short: "Deterministic event-driven equity backtesting engine",
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newGridSearchCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the process exit code spec.md §6 requires:
// a ConfigurationError is an invalid-config problem (2), anything else
// surfaced to main is an internal error (1).
func exitCodeFor(err error) int {
	if errors.Is(err, kernelerr.ErrConfiguration) {
		return exitInvalidConfig
	}
	return exitInternalError
}
