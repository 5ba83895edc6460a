package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/supernova/internal/archive"
	"github.com/papapumpkin/supernova/internal/config"
	"github.com/papapumpkin/supernova/internal/ui"
	"github.com/papapumpkin/supernova/internal/world"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check world content for problems",
	Long: `Loads the world directory and reports structural problems: missing
entry files, dangling prerequisites, cycles, unreachable locations, and
quantum objects without a key state. With --watch it stays running and
re-checks on every content edit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("watch", false, "re-validate when content files change")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir := cfg.ContentDir
	if len(args) == 1 {
		dir = args[0]
	}
	printer := ui.New(!cfg.NoColor)

	checkErr := checkWorld(printer, dir)

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return checkErr
	}
	return watchWorld(cmd, printer, dir)
}

// checkWorld loads and validates one world directory, printing the
// verdict and, when clean, the content statistics authors steer by.
func checkWorld(printer *ui.Printer, dir string) error {
	w, err := world.Load(dir)
	if err != nil {
		printer.Error(err)
		return err
	}

	problems := world.Validate(w)
	printer.ValidateResult(dir, problems)
	if len(problems) > 0 {
		return errors.New("validation failed")
	}

	printer.WorldStats(w.Manifest.Title,
		len(w.Entries),
		len(w.Manifest.Locations),
		len(w.Manifest.NPCs),
		len(w.Manifest.Quantum))

	// Validation passed, so registry construction cannot fail on
	// duplicates or cycles; any error here is a validator gap.
	reg, err := archive.New(w.ArchiveEntries())
	if err != nil {
		printer.Error(err)
		return err
	}
	depth, endsAt := reg.Graph().MaxDepth()
	printer.ChainDepth(depth, endsAt)
	printer.Threads(reg.Graph().Threads())

	order, err := reg.UnlockOrder()
	if err != nil {
		printer.Error(err)
		return err
	}
	printer.UnlockOrder(order)
	return nil
}

// watchWorld re-validates on every detected content change until
// interrupted. Individual failed checks keep the watch alive; authors
// fix the file and save again.
func watchWorld(cmd *cobra.Command, printer *ui.Printer, dir string) error {
	watcher, err := world.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	printer.Info("watching for changes (ctrl-c to stop)")
	for {
		select {
		case <-ctx.Done():
			watcher.Stop()
			return nil
		case change, ok := <-watcher.Changes:
			if !ok {
				return nil
			}
			printer.Info(fmt.Sprintf("changed: %s", filepath.Base(change.File)))
			_ = checkWorld(printer, dir)
		}
	}
}
