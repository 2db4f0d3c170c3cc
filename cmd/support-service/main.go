package main

import (
	"os"

	"github.com/algo-rangers/support-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
