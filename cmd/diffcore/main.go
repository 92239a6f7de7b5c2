// Package main provides the entry point for the diffcore CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/diffcore/cmd/diffcore/commands"
	"github.com/Sumatoshi-tech/diffcore/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
