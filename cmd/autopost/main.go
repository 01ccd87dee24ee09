package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nhankey2000/auto-post/internal/config"
	"github.com/nhankey2000/auto-post/internal/container"
	"github.com/nhankey2000/auto-post/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	output     = "text" // "text" or "json"

	app *container.Container
)

var rootCmd = &cobra.Command{
	Use:   "autopost",
	Short: "autopost - publish to and manage Facebook pages",
	Long: `autopost manages connected pages from the command line: checks page
tokens, publishes and edits posts, pulls page analytics and answers messages.
It works on the same database as the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if output != "text" && output != "json" {
			return fmt.Errorf("invalid output format %q: expected text or json", output)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		app, err = container.Build(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Cleanup(context.Background())
		}
		logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("AUTOPOST_CONFIG"), "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", output, "Output format: text or json")

	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(messagesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
