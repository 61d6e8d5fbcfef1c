package main

import (
	"os"

	"github.com/yahoo/elide-sub004/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
