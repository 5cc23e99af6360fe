package main

import (
	"os"

	"github.com/arthur-debert/phazr/cmd/phazr"
	"github.com/arthur-debert/phazr/pkg/display"
)

func main() {
	rootCmd := phazr.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		display.New(os.Stderr, false).Error("%v", err)
		os.Exit(1)
	}
}
