package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/phazr/cmd/phazr"
	"github.com/arthur-debert/phazr/internal/version"
)

func main() {
	rootCmd := phazr.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "PHAZR",
		Section: "1",
		Source:  "phazr " + version.Version,
		Manual:  "phazr manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
