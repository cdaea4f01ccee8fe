package main

import (
	"os"

	"github.com/shopfront-dev/shopfront/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
