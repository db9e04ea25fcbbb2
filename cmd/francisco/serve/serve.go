package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"francisco/cmd/francisco/cli"
	"francisco/internal/config"
	"francisco/internal/server"

	"github.com/spf13/cobra"
)

var (
	transport string
	addr      string
)

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long:  "Start the MCP server exposing the invoke and status tools over stdio (default) or streamable HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := cli.Global.App()
		if err != nil {
			return err
		}
		if transport != "" {
			app.Settings.Server.Transport = transport
		}
		if addr != "" {
			app.Settings.Server.Addr = addr
		}
		if err := checkTransport(app.Settings.Server.Transport); err != nil {
			return err
		}

		a, err := app.NewAgent()
		if err != nil {
			return err
		}

		endpoints := server.NewEndpoints(app.Persona)
		endpoints.Attach(a)
		mcpServer := server.NewMCPServer(endpoints, cli.Version)

		slog.Info("starting francisco",
			"persona", app.Persona.Name,
			"model", app.Engine.Model,
			"transport", app.Settings.Server.Transport,
			"tools", len(app.Tools),
		)

		switch app.Settings.Server.Transport {
		case config.TransportStdio:
			return ignoreCanceled(server.RunStdio(ctx, mcpServer))
		case config.TransportHTTP:
			return server.NewHTTPServer(endpoints, mcpServer).ListenAndServe(ctx, app.Settings.Server.Addr)
		default:
			return checkTransport(app.Settings.Server.Transport)
		}
	},
}

func init() {
	Cmd.Flags().StringVarP(&transport, "transport", "t", "", "transport: stdio or http")
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address for the http transport")
}

func checkTransport(t string) error {
	switch t {
	case config.TransportStdio, config.TransportHTTP:
		return nil
	}
	return fmt.Errorf("invalid transport %q: want %s or %s", t, config.TransportStdio, config.TransportHTTP)
}

// ignoreCanceled treats a signal-driven shutdown as a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
