package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/expandql/internal/queryopts"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a query document.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*QueryOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{QueryOptions: &QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "validate <query.yaml>",
		Short: "Validate a query document",
		Long: `Validate a YAML query document without evaluating it.

The document is always checked against the query schema. With --model and
--root it is also translated, which checks every member path against the
type model.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "path to YAML type model")
	cmd.Flags().StringVar(&opts.Root, "root", "", "root type name in the model")
	cmd.Flags().BoolVar(&opts.Nested, "nested", false, "also translate nested expand filter/orderby/paging")
	cmd.MarkFlagsRequiredTogether("model", "root")

	return cmd
}

func runValidate(opts *ValidateOptions, queryPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := configureLogging(opts.RootOptions, formatter.GetErrWriter())

	data, err := os.ReadFile(queryPath)
	if err != nil {
		return formatter.Fail(&LoadError{Code: ErrCodeNotFound, Message: err.Error(), Path: queryPath, Err: err})
	}

	if err := queryopts.ValidateDocument(data); err != nil {
		return outputValidationFailure(formatter, err)
	}
	formatter.VerboseLog("%s: schema ok", queryPath)

	if opts.Model == "" {
		return outputValidateSuccess(formatter)
	}

	q, err := opts.loadQuery(queryPath)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return formatter.Fail(err)
		}
		return outputValidationFailure(formatter, err)
	}
	if _, err := opts.translator(logger).Translate(q.Options, q.Root); err != nil {
		return outputValidationFailure(formatter, err)
	}
	formatter.VerboseLog("%s: translates against %s", queryPath, q.Root.Name())

	return outputValidateSuccess(formatter)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Query valid")
	return nil
}

// outputValidationFailure reports a query that failed validation.
// Validation failures are exit code 1.
func outputValidationFailure(formatter *OutputFormatter, err error) error {
	issue := ValidationIssue{Code: errorCode(err), Message: err.Error()}

	if formatter.Format == "json" {
		if encErr := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: []ValidationIssue{issue}},
			Error:  &CLIError{Code: issue.Code, Message: issue.Message},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}

	return WrapExitError(ExitFailure, "validation failed", err)
}
