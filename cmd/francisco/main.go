package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"francisco/cmd/francisco/cli"
	"francisco/cmd/francisco/placeholders"
	"francisco/cmd/francisco/serve"
	"francisco/cmd/francisco/show"
	"francisco/cmd/francisco/testagent"
	"francisco/cmd/francisco/version"
	"francisco/internal/logger"
	"francisco/internal/trace"

	"github.com/spf13/cobra"
)

func main() {
	var shutdownTrace func(context.Context) error

	rootCmd := &cobra.Command{
		Use:           "francisco",
		Short:         "Francisco serves a YAML-configured agent persona over MCP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.Global.Settings()
			if err != nil {
				return err
			}
			logger.Init(s.LogLevel)

			shutdownTrace, err = trace.Init(cmd.Context(), trace.Config{
				Endpoint: s.Trace.Endpoint,
				URLPath:  s.Trace.URLPath,
				APIKey:   s.Trace.APIKey,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdownTrace == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdownTrace(ctx)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cli.Global.PersonaPath, "config", "c", "", "path to the persona YAML (default: built-in persona)")
	flags.StringVarP(&cli.Global.SettingsPath, "settings", "s", "", "path to the TOML settings file")
	flags.StringVarP(&cli.Global.APIKey, "api-key", "k", "", "OpenAI API key (default: $OPENAI_API_KEY)")
	flags.StringVarP(&cli.Global.LogLevel, "log-level", "l", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(show.Cmd)
	rootCmd.AddCommand(testagent.Cmd)
	rootCmd.AddCommand(version.Cmd)
	rootCmd.AddCommand(placeholders.Cmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
