package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/supernova/internal/config"
	"github.com/papapumpkin/supernova/internal/tui"
	"github.com/papapumpkin/supernova/internal/ui"
)

// tuiCmd launches the full-screen terminal interface.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Play in a full-screen terminal interface",
	Long: `Launch the game in an alternate-screen TUI with a persistent status
bar, scrollback, and the same command vocabulary as line mode.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	addSessionFlags(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isTTY(os.Stderr) {
		return fmt.Errorf("supernova tui requires a TTY (terminal)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)
	printer := ui.New(!cfg.NoColor)

	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	s, cleanup, err := buildSession(ctx, cmd, cfg, printer)
	if err != nil {
		return err
	}
	defer cleanup()

	return tui.Run(s)
}

// isTTY reports whether the file is connected to a terminal.
func isTTY(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
