package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todoapp/internal/config"
	"github.com/Jayphen/todoapp/internal/redis"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage todo configuration files.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration values from all sources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, asYAML)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the merged configuration as YAML")

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration file",
		Long: `Create an example configuration file at ~/.config/todoapp/config.yaml.

The generated file contains all available options with their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths where configuration files are searched.`,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, asYAML bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if asYAML {
		data, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprint(out, string(data))
		return nil
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  api_url:         %s\n", valueOrDefault(cfg.APIURL, "(not set)"))
	fmt.Fprintf(out, "  chat_url:        %s\n", cfg.ChatEndpoint())
	fmt.Fprintf(out, "  source:          %s\n", cfg.SourceSpec())
	fmt.Fprintf(out, "  request_timeout: %s\n", cfg.Timeout())
	fmt.Fprintf(out, "  redis_url:       %s\n", redisStatus(cfg.RedisURL))
	fmt.Fprintf(out, "  chat_session:    %s\n", cfg.ChatSession)
	fmt.Fprintf(out, "  default_view:    %s\n", cfg.View())
	fmt.Fprintf(out, "  notifications:   %t\n", cfg.Notifications)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Logging:")
	fmt.Fprintf(out, "    level:     %s\n", valueOrDefault(cfg.Logging.Level, config.DefaultLogLevel))
	fmt.Fprintf(out, "    file_path: %s\n", valueOrDefault(cfg.Logging.FilePath, "(not set)"))

	return nil
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "todoapp", "config.yaml")

	// Check if file exists
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := config.WriteExample(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at: %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Edit this file to customize your settings.")
	fmt.Fprintln(out, "Run 'todo config show' to see current values.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration file search paths (in priority order):")
	fmt.Fprintln(out)

	paths := config.ConfigPaths()
	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, p, exists)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables can override file settings.")
	fmt.Fprintln(out, "Supported env vars:")
	fmt.Fprintln(out, "  TODOAPP_API_URL")
	fmt.Fprintln(out, "  TODOAPP_CHAT_URL")
	fmt.Fprintln(out, "  TODOAPP_SOURCE")
	fmt.Fprintln(out, "  TODOAPP_REQUEST_TIMEOUT")
	fmt.Fprintln(out, "  TODOAPP_REDIS_URL (or REDIS_URL)")
	fmt.Fprintln(out, "  TODOAPP_CHAT_SESSION")
	fmt.Fprintln(out, "  TODOAPP_DEFAULT_VIEW")
	fmt.Fprintln(out, "  TODOAPP_NOTIFICATIONS")
	fmt.Fprintln(out, "  TODOAPP_LOG_LEVEL")
	fmt.Fprintln(out, "  TODOAPP_LOG_FILE")

	return nil
}

func redisStatus(url string) string {
	if url == "" {
		return "(not set, chat kept in memory)"
	}
	if !redis.IsAvailable(url) {
		return url + " (unreachable, chat kept in memory)"
	}
	return url + " (connected)"
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
