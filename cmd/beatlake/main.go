// Package main is the entry point for the beatlake CLI.
package main

import (
	"os"

	"github.com/beatlake/beatlake/internal/cli"

	_ "github.com/beatlake/beatlake/pkg/adapters/duckdb" // register the engine adapter
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
