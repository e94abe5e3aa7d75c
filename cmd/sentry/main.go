// Command sentry is the PatentSentry command-line client.
package main

import (
	"os"

	"github.com/turtacn/PatentSentry/internal/interfaces/cli"
)

// Injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
