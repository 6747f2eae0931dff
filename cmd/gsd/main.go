package main

import (
	"os"

	"github.com/gsd-build/gsd/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
