package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/doas/internal/scenario"
	"github.com/roach88/doas/internal/sim"
)

// conformanceResult is one scenario's conformance outcome.
type conformanceResult struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors,omitempty"`
}

// testPayload is the JSON body for a conformance run.
type testPayload struct {
	Pass    bool                `json:"pass"`
	Results []conformanceResult `json:"results"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run conformance checks for scenarios",
		Long: `Evaluate each scenario and compare the computed stage values against
its expect block. Scenarios without an expect block pass trivially.

Exit code 1 when any expectation fails, 2 for unloadable scenarios.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConformance(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runConformance(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	payload := testPayload{Pass: true}
	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeScenario, err.Error(), nil)
		}

		res, err := sim.Evaluate(s.ToConfig())
		if err != nil {
			payload.Pass = false
			payload.Results = append(payload.Results, conformanceResult{
				Scenario: s.Name,
				Pass:     false,
				Errors:   []string{err.Error()},
			})
			continue
		}

		errs := s.Check(res)
		payload.Results = append(payload.Results, conformanceResult{
			Scenario: s.Name,
			Pass:     len(errs) == 0,
			Errors:   errs,
		})
		if len(errs) > 0 {
			payload.Pass = false
		}
	}

	if !payload.Pass {
		var details []string
		for _, r := range payload.Results {
			for _, e := range r.Errors {
				details = append(details, fmt.Sprintf("%s: %s", r.Scenario, e))
			}
		}
		return formatter.Fail(ExitFailure, ErrCodeConformance, "conformance failed", details)
	}

	return formatter.Success(payload, func(w io.Writer) {
		for _, r := range payload.Results {
			fmt.Fprintf(w, "ok   %s\n", r.Scenario)
		}
		fmt.Fprintf(w, "%d scenario(s) passed\n", len(payload.Results))
	})
}
