package placeholders

import (
	"fmt"

	"francisco/internal/prompt"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "placeholders",
	Short: "List the placeholders a prompt template may use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range prompt.Placeholders() {
			fmt.Fprintf(cmd.OutOrStdout(), "{%s}\n", name)
		}
	},
}
