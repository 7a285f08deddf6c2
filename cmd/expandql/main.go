// Command expandql translates query documents into expression trees and
// evaluates them in memory or against SQLite.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/expandql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands report their own ExitErrors; flag and argument errors
		// from cobra still need printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
