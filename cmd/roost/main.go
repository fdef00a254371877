package main

import (
	"os"

	"github.com/simonhull/firebird-suite/roost/internal/commands"
	"github.com/simonhull/firebird-suite/roost/internal/output"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.RoutesCmd())
	rootCmd.AddCommand(commands.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
}
