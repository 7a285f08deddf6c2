package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/expandql/internal/querysql"
	"github.com/roach88/expandql/internal/store"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*QueryOptions
	Data     string
	Database string
}

// SQLResult is the output of the sql command. Rows is only set when the
// query was executed.
type SQLResult struct {
	SQL    string           `json:"sql"`
	Params []any            `json:"params"`
	Rows   []map[string]any `json:"rows,omitempty"`
}

// String renders the statement, its parameters, and any result rows.
func (r SQLResult) String() string {
	var b strings.Builder
	b.WriteString(r.SQL)
	if len(r.Params) > 0 {
		fmt.Fprintf(&b, "\nparams: %v", r.Params)
	}
	if r.Rows != nil {
		b.WriteByte('\n')
		b.WriteString(RunResult{Count: int64(len(r.Rows)), Rows: r.Rows}.String())
	}
	return b.String()
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{QueryOptions: &QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "sql <query.yaml>",
		Short: "Compile a query document to SQLite SQL",
		Long: `Translate a query document and compile the plan to a parameterized
SQLite SELECT over the root type's table.

Only flat queries compile: root scalar columns, filters over root scalars,
scalar ordering keys and paging. With --data the rows are loaded into the
database (in memory unless --db is given) and the statement is executed;
with --db alone it runs against tables loaded earlier.

Example:
  expandql sql --model model.yaml --root Customer query.yaml
  expandql sql --model model.yaml --root Customer --data customers.yaml query.yaml
  expandql sql --model model.yaml --root Customer --db ./data.db query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, opts.QueryOptions)
	cmd.Flags().StringVar(&opts.Data, "data", "", "path to YAML list of root objects to load")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runSQL(opts *SQLOptions, queryPath string, cmd *cobra.Command) error {
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

	query, params, err := querysql.NewSQLCompiler().Compile(plan)
	if err != nil {
		return formatter.Fail(err)
	}
	result := SQLResult{SQL: query, Params: params}
	if result.Params == nil {
		result.Params = []any{}
	}

	if opts.Data == "" && opts.Database == "" {
		return formatter.SuccessWithID(result, plan.ID)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := opts.execute(ctx, formatter, q, query, params)
	if err != nil {
		return formatter.Fail(err)
	}
	result.Rows = rows
	return formatter.SuccessWithID(result, plan.ID)
}

// execute opens the database, loads --data if given, and runs the
// compiled statement.
func (o *SQLOptions) execute(ctx context.Context, formatter *OutputFormatter, q *loadedQuery, query string, params []any) ([]map[string]any, error) {
	path := o.Database
	if path == "" {
		path = ":memory:"
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error(), Path: path, Err: err}
	}
	defer st.Close()

	if o.Data != "" {
		rows, err := LoadRows(o.Data)
		if err != nil {
			return nil, err
		}
		if err := st.CreateTable(ctx, q.Root); err != nil {
			return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error(), Path: path, Err: err}
		}
		if err := st.Insert(ctx, q.Root, rows); err != nil {
			return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error(), Path: path, Err: err}
		}
		formatter.VerboseLog("loaded %d row(s) into %s", len(rows), querysql.TableName(q.Root))
	}

	rows, err := st.Query(ctx, query, params...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error(), Path: path, Err: err}
	}
	return rows, nil
}
