package main

import (
	"os"

	"github.com/centraunit/scopegraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
