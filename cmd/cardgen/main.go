package main

import (
	"os"

	"RPG-CARDS/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
