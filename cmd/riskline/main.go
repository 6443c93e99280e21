// Package main provides the CLI for riskline, the insurance portfolio
// analytics engine.
package main

import "github.com/riskline-labs/riskline/internal/cli"

func main() {
	cli.Execute()
}
