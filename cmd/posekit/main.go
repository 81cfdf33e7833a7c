// Package main is the entry point for the posekit CLI.
package main

import (
	"os"

	"github.com/f3rmion/posekit/cmd/posekit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
