// Package main is the entry point for the cogmetrics CLI tool, which imports
// tagged basketball game files and computes team and player cognitive scores.
package main

import "github.com/pable/go-cog-metrics/cmd"

func main() {
	cmd.Execute()
}
