package testagent

import (
	"encoding/json"
	"fmt"
	"strings"

	"francisco/cmd/francisco/cli"
	"francisco/internal/agent"

	"github.com/spf13/cobra"
)

var (
	contextJSON string
	stream      bool

	// agentOptions are appended when the agent is built. Tests swap the engine here.
	agentOptions []agent.Option
)

var Cmd = &cobra.Command{
	Use:   "test-agent <input>",
	Short: "Run the agent once on the given input",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := agent.Request{Input: strings.Join(args, " ")}
		if contextJSON != "" {
			if err := json.Unmarshal([]byte(contextJSON), &req.Context); err != nil {
				return fmt.Errorf("parsing --context: %w", err)
			}
		}

		app, err := cli.Global.App()
		if err != nil {
			return err
		}
		a, err := app.NewAgent(agentOptions...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.DimStyle.Render("Input: "+req.Input))
		fmt.Fprintln(out)

		res, err := a.Stream(cmd.Context(), req, func(ev agent.Event) {
			if !stream {
				return
			}
			switch ev.Type {
			case agent.EventToken:
				fmt.Fprint(out, ev.Data)
			case agent.EventToolCall:
				fmt.Fprintln(out, cli.DimStyle.Render(fmt.Sprintf("\n[tool] %v", ev.Data)))
			}
		})
		if stream {
			fmt.Fprintln(out)
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.ErrorPanel(agent.Kind(err), err.Error()))
			return err
		}

		meta, _ := json.MarshalIndent(res.Metadata, "", "  ")
		fmt.Fprintln(out, cli.SuccessPanel(app.Persona.Name+" response", res.Output))
		fmt.Fprintln(out, cli.DimStyle.Render(string(meta)))
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&contextJSON, "context", "", "JSON object passed as additional context")
	Cmd.Flags().BoolVar(&stream, "stream", false, "print tokens as they arrive")
}
