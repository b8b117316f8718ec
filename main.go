package main

import (
	"os"

	"github.com/botscope/botscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
