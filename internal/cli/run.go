package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/doas/internal/scenario"
	"github.com/roach88/doas/internal/sim"
	"github.com/roach88/doas/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Interval time.Duration
	Ticks    int
	Window   int

	// TokenGenerator allows overriding the run-token generator (for
	// testing). If nil, defaults to UUIDv7.
	TokenGenerator sim.TokenGenerator
}

// runPayload is the JSON body for a completed run.
type runPayload struct {
	Scenario string       `json:"scenario"`
	RunToken string       `json:"run_token"`
	Stats    sim.RunStats `json:"stats"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Drive the simulation loop for a scenario",
		Long: `Drive the per-tick simulation loop: one pipeline evaluation per tick
at the configured interval, with a rolling in-memory history window and,
when --db is given, snapshots persisted to SQLite.

Runs until --ticks evaluations have elapsed, or until interrupted when
--ticks is 0.

Example:
  doas run scenarios/design-day.yaml --ticks 60 --interval 1s
  doas run scenarios/design-day.yaml --db ./doas.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database (optional)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "tick interval (0 for free-running)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "number of ticks to run (0 = until interrupted)")
	cmd.Flags().IntVar(&opts.Window, "window", sim.DefaultHistoryWindow, "rolling history window size")

	return cmd
}

func runLoop(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	s, err := scenario.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, err.Error(), nil)
	}
	cfg := s.ToConfig()
	if err := cfg.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, err.Error(), nil)
	}

	runnerOpts := []sim.RunnerOption{
		sim.WithInterval(opts.Interval),
		sim.WithHistoryCapacity(opts.Window),
		sim.WithLogger(log),
	}
	if opts.TokenGenerator != nil {
		runnerOpts = append(runnerOpts, sim.WithTokenGenerator(opts.TokenGenerator))
	}

	var st *store.Store
	if opts.Database != "" {
		log.Info("opening snapshot database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		runnerOpts = append(runnerOpts, sim.WithPublisher(&store.Publisher{Store: st, Keep: opts.Window}))
	}

	r := sim.NewRunner(cfg, runnerOpts...)

	if st != nil {
		if err := st.BeginRun(cmd.Context(), r.Token(), s.Name, time.Now()); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM. The command's context is the
	// parent so tests can cancel from outside.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("run started", "scenario", s.Name, "run_token", r.Token(), "interval", opts.Interval)
	stats, err := r.Run(ctx, opts.Ticks)
	if err != nil && !errors.Is(err, context.Canceled) {
		return formatter.Fail(ExitCommandError, ErrCodeEvaluation, err.Error(), nil)
	}
	log.Info("run finished", "ticks", stats.Ticks, "failures", stats.Failures)

	return formatter.Success(runPayload{Scenario: s.Name, RunToken: r.Token(), Stats: stats}, func(w io.Writer) {
		fmt.Fprintf(w, "run %s: %d tick(s), %d failure(s)\n", r.Token(), stats.Ticks, stats.Failures)
	})
}
