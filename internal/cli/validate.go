package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/doas/internal/scenario"
)

// validatePayload is the JSON body for a validation result.
type validatePayload struct {
	Scenario string `json:"scenario"`
	Valid    bool   `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file without evaluating it",
		Long: `Validate a scenario file against the scenario schema and the
pipeline's config constraints without running an evaluation.

Schema validation catches structural problems (missing keys, misspelled
keys, out-of-range effectiveness); config validation catches values the
simulator itself refuses, such as non-positive airflow.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateScenario(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidateScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := scenario.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, err.Error(), nil)
	}
	if err := s.ToConfig().Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, err.Error(), nil)
	}

	return formatter.Success(validatePayload{Scenario: s.Name, Valid: true}, func(w io.Writer) {
		fmt.Fprintf(w, "scenario %s: valid\n", s.Name)
	})
}
