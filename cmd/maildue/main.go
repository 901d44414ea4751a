package main

import (
	"os"

	"github.com/maildue/maildue/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
