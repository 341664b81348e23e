package main

import (
	"os"

	"github.com/decisiveml/ruinlab/cmd/ruinlab/commands"
)

// main is the entry point for the ruinlab CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ruinlab [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
