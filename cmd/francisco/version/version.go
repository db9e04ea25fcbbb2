package version

import (
	"fmt"

	"francisco/cmd/francisco/cli"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "francisco v%s\n", cli.Version)
		fmt.Fprintln(cmd.OutOrStdout(), cli.DimStyle.Render("MCP server for a YAML-configured agent persona"))
	},
}
