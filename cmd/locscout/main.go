// Command locscout is the entry point for the LocScout film location
// assistant. It provides a CLI interface (via Cobra) and an HTTP server that
// exposes the conversational location search API.
package main

import (
	"fmt"
	"os"

	"github.com/locscout/locscout-go/cmd/locscout/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
