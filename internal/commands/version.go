package commands

import (
	"fmt"

	"github.com/simonhull/firebird-suite/roost"
	"github.com/spf13/cobra"
)

// VersionCmd prints the roost version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the roost version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "roost %s\n", roost.Version)
		},
	}
}
