package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/daylog/internal/config"
	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View daylog configuration",
	Long: `View daylog configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/daylog/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file and log directory paths",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}
	fmt.Fprintf(out, "# Log directory: %s\n", filepath.Join(cfg.ResolveDataDir(), logging.LogsDirName))

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	return enc.Close()
}

const configTemplate = `# daylog configuration

# Data directory; log files live in its logs/ subdirectory.
# Empty means $XDG_DATA_HOME/daylog or ~/.local/share/daylog.
data_dir: ""

# Version stamped on every record. Empty means the binary's build version.
app_version: ""

# Verbose diagnostics on stderr
debug: false

# What happens to queued records when a writer stops
shutdown:
  # Options: drop, drain
  policy: drop
  # Upper bound on draining, in milliseconds (0 = no bound)
  grace_ms: 2000

# Output of "logs show", "logs follow" and "view"
display:
  # Options: auto, always, never
  color: auto
  # Records shown by "logs show" without -n (0 = all)
  tail: 50
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize daylog's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	cfg := config.Get()
	fmt.Fprintf(out, "Log directory: %s\n", filepath.Join(cfg.ResolveDataDir(), logging.LogsDirName))
	fmt.Fprintln(out, "\nEnvironment variables: DAYLOG_* (e.g., DAYLOG_SHUTDOWN_POLICY)")
	return nil
}
