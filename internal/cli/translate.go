package cli

import (
	"github.com/spf13/cobra"
)

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <query.yaml>",
		Short: "Translate a query document into expression trees",
		Long: `Translate a YAML query document against a type model and print the
resulting plan: filter predicate, ordering chain, count expression,
projection selectors and include paths.

Example:
  expandql translate --model model.yaml --root Customer query.yaml
  expandql translate --model model.yaml --root Customer --nested --format json query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

func runTranslate(opts *QueryOptions, queryPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := configureLogging(opts.RootOptions, formatter.GetErrWriter())

	q, err := opts.loadQuery(queryPath)
	if err != nil {
		return formatter.Fail(err)
	}

	plan, err := opts.translator(logger).Translate(q.Options, q.Root)
	if err != nil {
		return formatter.Fail(err)
	}

	summary, err := plan.Summary()
	if err != nil {
		return formatter.Fail(err)
	}
	return formatter.SuccessWithID(summary, plan.ID)
}
