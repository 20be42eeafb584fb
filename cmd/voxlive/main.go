// Package main is the entry point for the voxlive CLI.
//
// Usage:
//
//	voxlive [flags] <command> [args]
//
// Commands:
//
//	run        - Start a live voice conversation
//	devices    - List audio devices
//	ask        - One-shot text generation, optionally about an image
//	imagine    - Generate an image from a prompt
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/voxlive/voxlive/cmd/voxlive/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
