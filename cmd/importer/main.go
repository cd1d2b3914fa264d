package main

import (
	"os"

	"github.com/khamrai2017/finance-tracker/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
