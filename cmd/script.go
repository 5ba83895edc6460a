package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/supernova/internal/config"
	"github.com/papapumpkin/supernova/internal/script"
	"github.com/papapumpkin/supernova/internal/ui"
	"github.com/papapumpkin/supernova/internal/world"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file>...",
	Short: "Run scripted scenarios against the world",
	Long: `Executes one or more YAML scenario files against the loaded world and
reports which ones pass. Scenarios drive a fresh seeded session through a
fixed command flow and assert on output, errors, loop events, and the
final ship's log.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	printer := ui.New(!cfg.NoColor)

	w, err := world.Load(cfg.ContentDir)
	if err != nil {
		return err
	}
	if problems := world.Validate(w); len(problems) > 0 {
		printer.ValidateResult(cfg.ContentDir, problems)
		return fmt.Errorf("validation failed")
	}

	ctx := cmd.Context()
	failed := 0
	for _, path := range args {
		rep, err := script.RunFile(ctx, w, path)
		if err != nil {
			printer.Error(fmt.Errorf("%s: %w", path, err))
			failed++
			continue
		}
		printer.ScriptReport(rep.Name, rep.Steps, rep.Failures)
		if !rep.Passed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}
