// Command tooluse lists and runs the local LLM tool functions.
package main

import (
	"os"

	"github.com/skosovsky/tooluse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
