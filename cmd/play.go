package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/supernova/internal/config"
	"github.com/papapumpkin/supernova/internal/saves"
	"github.com/papapumpkin/supernova/internal/session"
	"github.com/papapumpkin/supernova/internal/telemetry"
	"github.com/papapumpkin/supernova/internal/ui"
	"github.com/papapumpkin/supernova/internal/world"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the interactive line-mode game",
	RunE:  runPlay,
}

func init() {
	addSessionFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}

// addSessionFlags registers the flags shared by every command that
// assembles a live session.
func addSessionFlags(c *cobra.Command) {
	c.Flags().Int64("seed", 0, "fix the quantum RNG seed (0 = random)")
	c.Flags().Int("actions", 0, "override actions per loop")
	c.Flags().String("resume", "", "resume a saved session by id")
	c.Flags().String("db", "", "save database path")
	c.Flags().String("telemetry", "", "append JSONL telemetry to this file")
}

func runPlay(cmd *cobra.Command, args []string) error {
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

	printer.Banner(s.World().Manifest.Title)
	printer.Narrative(openingText(s))

	return runREPL(ctx, s, printer)
}

// applyFlagOverrides applies CLI flag values to the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		cfg.Seed = v
	}
	if v, _ := cmd.Flags().GetInt("actions"); v > 0 {
		cfg.ActionsPerLoop = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.SaveDB = v
	}
	if v, _ := cmd.Flags().GetString("telemetry"); v != "" {
		cfg.TelemetryPath = v
	}
}

// buildSession loads and validates the world, opens the save store and
// telemetry sinks the config asks for, and assembles a session. The
// returned cleanup closes whatever was opened and must be called even
// when play ends early.
func buildSession(ctx context.Context, cmd *cobra.Command, cfg config.Config, printer *ui.Printer) (*session.Session, func(), error) {
	w, err := world.Load(cfg.ContentDir)
	if err != nil {
		return nil, nil, err
	}
	if problems := world.Validate(w); len(problems) > 0 {
		printer.ValidateResult(cfg.ContentDir, problems)
		return nil, nil, errors.New("validation failed")
	}

	opts := session.Options{
		Seed:           cfg.Seed,
		ActionsPerLoop: cfg.ActionsPerLoop,
	}

	var store *saves.Store
	if cfg.SaveDB != "" {
		store, err = saves.Open(ctx, cfg.SaveDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open save store: %w", err)
		}
		opts.Store = store
	}

	var emitter *telemetry.Emitter
	if cfg.TelemetryPath != "" {
		emitter, err = telemetry.NewEmitter(cfg.TelemetryPath)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return nil, nil, err
		}
		opts.Emitter = emitter
	}

	cleanup := func() {
		if emitter != nil {
			_ = emitter.Close()
		}
		if store != nil {
			_ = store.Close()
		}
	}

	if resumeID, _ := cmd.Flags().GetString("resume"); resumeID != "" {
		if store == nil {
			cleanup()
			return nil, nil, errors.New("resume requires a save database (--db or save_db in config)")
		}
		rec, getErr := store.Get(ctx, resumeID)
		switch {
		case errors.Is(getErr, saves.ErrCorrupt):
			// A mangled save is not worth refusing to play over. Keep
			// the id so the next save overwrites the bad row.
			printer.Info(fmt.Sprintf("save %s is unreadable; starting a fresh session under the same id", resumeID))
			opts.ID = resumeID
		case getErr != nil:
			cleanup()
			return nil, nil, fmt.Errorf("resume %s: %w", resumeID, getErr)
		default:
			known := make(map[string]bool, len(w.Entries))
			for _, e := range w.Entries {
				known[e.ID] = true
			}
			snap, dropped := saves.Sanitize(rec.Snapshot, func(id string) bool { return known[id] })
			for _, id := range dropped {
				printer.Info(fmt.Sprintf("save references entry %q the world no longer has; dropped", id))
			}
			opts.Snapshot = &snap
			opts.ID = rec.ID
		}
	}

	s, err := session.New(w, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		printer.Info("\nshutting down...")
		cancel()
	}()
	return ctx, cancel
}

// openingText composes the first narrative block of a run: where the
// player wakes and how much of the log past loops have filled in.
func openingText(s *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You wake at %s.", s.LocationName())
	if n := s.Log().Count(); n > 0 {
		fmt.Fprintf(&b, " The ship's log lies open beside you: %d %s recovered so far.",
			n, pluralEntries(n))
	} else {
		b.WriteString(" The ship's log is blank.")
	}
	return b.String()
}

func pluralEntries(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}

// runREPL reads command lines until the session concludes or input runs dry.
func runREPL(ctx context.Context, s *session.Session, printer *ui.Printer) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		printer.Prompt(s.Loop(), s.Counter(), s.Threshold(), s.WarningActive())
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		res, err := s.Execute(ctx, line)
		if res.Output != "" {
			printer.Narrative(res.Output)
		}
		if err != nil {
			if errors.Is(err, session.ErrEnded) {
				break
			}
			printer.Error(err)
		}
		if res.Ended {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
