// Package main provides the entry point for atmo, the Netatmo weather
// station command-line client.
package main

import (
	"fmt"
	"os"

	"atmo/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
