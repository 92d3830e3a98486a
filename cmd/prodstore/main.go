// Command prodstore manages an in-memory product catalogue.
package main

import (
	"os"

	"github.com/prodstore/prodstore/cmd/prodstore/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
