// Package main is the entry point for the flowmetrics CLI.
package main

import (
	"fmt"
	"os"

	"flowmetrics/cmd/flowmetrics/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
