package main

import (
	"os"

	"github.com/wonny/fundscreen/cmd/screen/commands"
)

// main is the entry point for the fundscreen CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/screen [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
