// cmd/wildguard/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalnine/wildguard/internal/apiserver"
	"github.com/signalnine/wildguard/internal/config"
	"github.com/signalnine/wildguard/internal/console"
	"github.com/signalnine/wildguard/internal/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "wildguard",
	Short:         "Wildlife reporting rangers console and demo API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the rangers operations console",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConsoleConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := logging.New(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return console.New(cfg, logger).Run(ctx)
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the demo rangers API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServerConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := logging.New(os.Stderr, cfg.LogLevel)

		srv, err := apiserver.NewServer(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	consoleCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults plus env when empty)")
	serverCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults plus env when empty)")

	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
