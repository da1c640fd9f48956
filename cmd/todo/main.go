// Package main is the entry point for the todo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/config"
	"github.com/Jayphen/todoapp/internal/logging"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage tasks on a remote task service",
		Long: `Todo is a client for a remote task service.

It lists, creates, edits, completes and deletes tasks, and relays
questions to the service's chat assistant. Run 'todo tui' for the
interactive dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// The TUI owns the terminal, so logs only go to the log file.
			initLogging(cmd.Name() == "tui")
		},
	}

	rootCmd.AddCommand(
		newListCmd(),
		newAddCmd(),
		newEditCmd(),
		newDoneCmd(),
		newStatusCmd(),
		newToggleCmd(),
		newRemoveCmd(),
		newChatCmd(),
		newTUICmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// initLogging initializes the logger from config.
func initLogging(quiet bool) {
	cfg, err := config.Get()
	if err != nil {
		// If config fails, use defaults (console output)
		_ = logging.Init(nil)
		return
	}

	s := logging.Settings{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		JSON:       cfg.Logging.JSON,
		Console:    cfg.Logging.Console,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}

	if err := logging.InitFromSettings(s, quiet); err != nil {
		// Fall back to defaults on error
		_ = logging.Init(nil)
	}
}
