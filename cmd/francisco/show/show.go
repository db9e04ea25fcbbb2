package show

import (
	"fmt"

	"francisco/cmd/francisco/cli"

	"github.com/spf13/cobra"
)

var showPrompt bool

var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Show the agent configuration",
	Long:  "Validate the persona, render the system prompt and print a summary. No API key is needed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Global.App()
		if err != nil {
			return err
		}

		source := app.Persona.Source
		if source == "" {
			source = "built-in"
		}
		body := app.Persona.Summary() + "\n\n" +
			cli.DimStyle.Render(fmt.Sprintf("persona: %s | engine model: %s | tools: %d", source, app.Engine.Model, len(app.Tools)))

		fmt.Fprintln(cmd.OutOrStdout(), cli.InfoPanel(app.Persona.Name+" configuration", body))
		if showPrompt {
			fmt.Fprintln(cmd.OutOrStdout(), app.Prompt)
		}
		return nil
	},
}

func init() {
	Cmd.Flags().BoolVarP(&showPrompt, "prompt", "p", false, "also print the rendered system prompt")
}
