package main

import (
	"os"

	"github.com/vaultgraph/vaultgraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
