package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/doas/internal/sim"
	"github.com/roach88/doas/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Run      string
	Window   int
}

// historyPayload is the JSON body for a history query.
type historyPayload struct {
	RunToken  string              `json:"run_token"`
	Snapshots []store.SnapshotRow `json:"snapshots"`
	Summary   store.Summary       `json:"summary"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the recent snapshot window of a run",
		Long: `Read the most recent snapshot window of a persisted run and print the
trend rows plus summary statistics (mean/stddev/min/max) for supply
temperature and coil loads.

Defaults to the most recently started run when --run is not given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database (required)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run token (default: latest run)")
	cmd.Flags().IntVar(&opts.Window, "window", sim.DefaultHistoryWindow, "number of snapshots to read")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	token := opts.Run
	if token == "" {
		token, err = st.LatestRunToken(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	rows, err := st.Window(ctx, token, opts.Window)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	summary := store.Summarize(rows)

	payload := historyPayload{RunToken: token, Snapshots: rows, Summary: summary}
	return formatter.Success(payload, func(w io.Writer) {
		renderHistoryText(w, payload)
	})
}

func renderHistoryText(w io.Writer, p historyPayload) {
	fmt.Fprintf(w, "run: %s (%d snapshot(s))\n\n", p.RunToken, p.Summary.Count)
	fmt.Fprintf(w, "%6s %10s %8s %8s %8s %8s\n", "seq", "supply C", "clg %", "rht %", "clg kW", "rht kW")
	for _, r := range p.Snapshots {
		fmt.Fprintf(w, "%6d %10.2f %8.1f %8.1f %8.2f %8.2f\n",
			r.Seq, r.SupplyTempC, r.CoolingValvePct, r.ReheatValvePct, r.CoolingLoadKW, r.ReheatLoadKW)
	}
	s := p.Summary.SupplyTempC
	fmt.Fprintf(w, "\nsupply temp: mean %.2f C  stddev %.2f  min %.2f  max %.2f\n", s.Mean, s.StdDev, s.Min, s.Max)
	c := p.Summary.CoolingLoadKW
	fmt.Fprintf(w, "cooling load: mean %.2f kW  stddev %.2f  min %.2f  max %.2f\n", c.Mean, c.StdDev, c.Min, c.Max)
}
