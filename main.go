// Package main is the entry point for the decarb application
package main

import (
	"github.com/ethpandaops/decarb/cmd"
)

func main() {
	cmd.Execute()
}
