package main

import (
	"os"

	"github.com/openalpha/lending-core/cmd/lendingd/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
