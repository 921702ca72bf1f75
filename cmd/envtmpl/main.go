package main

import (
	"github.com/vivaneiona/envtmpl/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = gitCommit
	cli.BuildDate = buildDate

	cli.Execute()
}
