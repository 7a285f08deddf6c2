package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/expandql/internal/memquery"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*QueryOptions
	Data string
}

// RunResult is the output of the run command.
type RunResult struct {
	ID    string           `json:"id"`
	Count int64            `json:"count"`
	Rows  []map[string]any `json:"rows"`
}

// String renders the match count followed by one JSON object per row.
func (r RunResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "count: %d", r.Count)
	for _, row := range r.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			data = []byte(fmt.Sprint(row))
		}
		b.WriteByte('\n')
		b.Write(data)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{QueryOptions: &QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "run <query.yaml>",
		Short: "Evaluate a query document against in-memory data",
		Long: `Translate a query document and evaluate the plan over rows read from a
YAML data file: filter, ordering and paging, then the projection.

The reported count is the number of rows matching the filter, before
paging.

Example:
  expandql run --model model.yaml --root Customer --data customers.yaml query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, opts.QueryOptions)
	cmd.Flags().StringVar(&opts.Data, "data", "", "path to YAML list of root objects (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runQuery(opts *RunOptions, queryPath string, cmd *cobra.Command) error {
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
	rows, err := LoadRows(opts.Data)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("loaded %d row(s) from %s", len(rows), opts.Data)

	plan, err := opts.translator(logger).Translate(q.Options, q.Root)
	if err != nil {
		return formatter.Fail(err)
	}

	pipeline, err := plan.Pipeline()
	if err != nil {
		return formatter.Fail(err)
	}
	items, err := memquery.Run(pipeline, rows)
	if err != nil {
		return evaluationFailure(formatter, err)
	}
	shaped, err := memquery.Materialize(plan.Selectors, items)
	if err != nil {
		return evaluationFailure(formatter, err)
	}

	count, err := memquery.Apply(plan.Count, rows)
	if err != nil {
		return evaluationFailure(formatter, err)
	}
	n, ok := count.(int64)
	if !ok {
		return evaluationFailure(formatter, fmt.Errorf("count evaluated to %T", count))
	}

	return formatter.SuccessWithID(RunResult{ID: plan.ID, Count: n, Rows: shaped}, plan.ID)
}

// evaluationFailure reports an in-memory evaluation error.
func evaluationFailure(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeEvaluation, err.Error(), nil)
	return WrapExitError(ExitFailure, ErrCodeEvaluation, err)
}
