// Command uniorm declares tables, reads and writes their rows and prints
// the audit log.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/uniorm/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.WasReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
