package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/daylog/internal/tui/logview"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse log files interactively",
	Long: `Browse log files in an interactive terminal UI.

Each file is a tab, most recent first. Records show their first line;
enter expands one to its full message and / searches the current file.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	// Diagnostics would draw over the alternate screen; the viewer reports
	// read problems itself.
	s, err := newSession(io.Discard)
	if err != nil {
		return err
	}

	if err := logview.Run(s.store, stylesFor(s.cfg.Display.Color, os.Stdout)); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
