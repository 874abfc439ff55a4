package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/daylog/internal/config"
	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "daylog",
	Short: "Day-partitioned application log sink",
	Long: `daylog writes application log records to one file per day and reads
them back for display.

Records are appended by a single background writer, so many producers can
log at once without interleaving. Files older than the retention period can
be cleared, and corrupt files are removed when read.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/daylog/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory; logs are kept in its logs/ subdirectory")
	rootCmd.PersistentFlags().Bool("debug", false, "verbose diagnostics on stderr")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DAYLOG")
	// DAYLOG_SHUTDOWN_POLICY for shutdown.policy
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// session is what a command needs to read or write the log store.
type session struct {
	cfg     *config.Config
	diag    *logging.Diagnostics
	store   *logging.Store
	manager *logging.Manager
}

// newSession loads the configuration and builds a store and a disabled
// manager on the OS filesystem. Diagnostics go to stderr.
func newSession(stderr io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return newSessionWith(cfg, afero.NewOsFs(), stderr)
}

func newSessionWith(cfg *config.Config, fs afero.Fs, stderr io.Writer) (*session, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	diag := logging.NewDiagnostics(stderr, cfg.DiagnosticsLevel())

	policy, err := logging.ParseShutdownPolicy(cfg.Shutdown.Policy)
	if err != nil {
		return nil, err
	}

	version := logging.BuildVersion
	if cfg.AppVersion != "" {
		version = logging.StaticVersion(cfg.AppVersion)
	}

	store := logging.NewStore(fs, cfg.ResolveDataDir(), logging.WithDiagnostics(diag))
	manager := logging.NewManager(store, logging.ManagerOptions{
		Writer: logging.WriterOptions{
			Version:  version,
			Shutdown: policy,
			Grace:    cfg.Shutdown.Grace(),
		},
		Diagnostics: diag,
	})

	return &session{
		cfg:     cfg,
		diag:    diag,
		store:   store,
		manager: manager,
	}, nil
}
