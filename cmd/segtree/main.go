// Package main provides the entry point for the segtree CLI.
package main

import (
	"fmt"
	"os"

	"github.com/danihelis/algorithms/cmd/segtree/commands"
)

func main() {
	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
