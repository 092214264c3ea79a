// Package cli implements the rentalbot CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rentalbot/internal/config"
	"rentalbot/internal/service"
	"rentalbot/internal/utils"
)

// Set at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var logLevel string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "rentalbot",
	Short: "Conversational property rental assistant",
	Long:  "Answers guest questions about a rental property catalog using retrieval-augmented generation and a persistent conversation memory.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			utils.SetLogLevel(logLevel)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: info or debug (default: $LOG_LEVEL)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		utils.SetLogLevel(cfg.Logging.Level)
	}
	return cfg, nil
}

// openRuntime loads configuration and builds every component
func openRuntime(ctx context.Context) (*service.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return service.Bootstrap(ctx, cfg)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
