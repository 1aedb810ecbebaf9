package main

import (
	"github.com/outplan/outplan/cmd"
)

// version is overridden by goreleaser at build time.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
