package main

import (
	"os"

	"github.com/trebuchet-org/vault-deployer/internal/cli"
	"github.com/trebuchet-org/vault-deployer/internal/config"
)

// Set by -ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)
	os.Exit(cli.Execute())
}
