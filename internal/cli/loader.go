package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/querysql"
	"github.com/roach88/expandql/internal/translate"
	"github.com/roach88/expandql/internal/typeinfo"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // File not found or unreadable
	ErrCodeInvalidModel = "E003" // Model document failed to load
	ErrCodeUnknownRoot  = "E004" // --root names no model type
	ErrCodeInvalidQuery = "E005" // Query document failed schema validation or decoding
	ErrCodeInvalidData  = "E006" // Data document is not a list of objects
	ErrCodeDatabase     = "E007" // Database open, load or query failed

	// Translation errors
	ErrCodeUnknownMember     = "E101" // Path segment names no member
	ErrCodeUnsupportedClause = "E102" // Node kind the translator does not handle
	ErrCodeMalformedChain    = "E103" // Nil or cyclic access chain
	ErrCodeInvalidFilter     = "E104" // Filter cannot be bound to the root type

	// Execution errors
	ErrCodeUnsupportedSQL = "E201" // Plan has no SQL form
	ErrCodeEvaluation     = "E202" // In-memory evaluation failed
)

// LoadError represents an error that occurred while reading an input file.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// errorCode maps an error from any stage to its CLI error code.
func errorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}

	switch translate.CodeOf(err) {
	case translate.ErrCodeUnknownMember:
		return ErrCodeUnknownMember
	case translate.ErrCodeUnsupportedClause:
		return ErrCodeUnsupportedClause
	case translate.ErrCodeMalformedChain:
		return ErrCodeMalformedChain
	}

	switch {
	case queryopts.IsBindError(err):
		return ErrCodeInvalidFilter
	case errors.Is(err, queryopts.ErrInvalidDocument):
		return ErrCodeInvalidQuery
	case errors.Is(err, querysql.ErrUnsupported):
		return ErrCodeUnsupportedSQL
	default:
		return ErrCodeGeneric
	}
}

// QueryOptions holds the flags shared by commands that translate a query
// document.
type QueryOptions struct {
	*RootOptions
	Model         string
	Root          string
	ParameterName string
	Nested        bool
}

// addQueryFlags registers the shared query flags on cmd.
func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringVar(&opts.Model, "model", "", "path to YAML type model (required)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "root type name in the model (required)")
	cmd.Flags().StringVar(&opts.ParameterName, "param", "", "projection parameter name (default \"i\")")
	cmd.Flags().BoolVar(&opts.Nested, "nested", false, "apply nested expand filter/orderby/paging")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("root")
}

// translator builds a Translator from the query flags.
func (o *QueryOptions) translator(logger *slog.Logger) *translate.Translator {
	opts := []translate.Option{
		translate.WithLogger(logger),
		translate.WithParameterName(o.ParameterName),
		translate.WithNestedOptions(o.Nested),
	}
	if o.IDGenerator != nil {
		opts = append(opts, translate.WithIDGenerator(o.IDGenerator))
	}
	return translate.New(opts...)
}

// loadedQuery is a query document bound to its root type.
type loadedQuery struct {
	Root    typeinfo.TypeDescriptor
	Options *queryopts.QueryOptions
}

// loadQuery reads the model and the query document and converts the
// document into query options against the root type.
func (o *QueryOptions) loadQuery(queryPath string) (*loadedQuery, error) {
	root, err := LoadRoot(o.Model, o.Root)
	if err != nil {
		return nil, err
	}

	data, err := readFile(queryPath)
	if err != nil {
		return nil, err
	}
	doc, err := queryopts.LoadDocument(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidQuery, Message: err.Error(), Path: queryPath, Err: err}
	}

	opts, err := doc.Options(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", queryPath, err)
	}
	return &loadedQuery{Root: root, Options: opts}, nil
}

// LoadRoot reads a model document and returns the named type.
func LoadRoot(modelPath, rootName string) (typeinfo.TypeDescriptor, error) {
	data, err := readFile(modelPath)
	if err != nil {
		return nil, err
	}

	model, err := typeinfo.LoadModel(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidModel, Message: err.Error(), Path: modelPath, Err: err}
	}

	root, ok := model.Type(rootName)
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeUnknownRoot,
			Message: fmt.Sprintf("type %q not declared (have %v)", rootName, model.Names()),
			Path:    modelPath,
		}
	}
	return root, nil
}

// LoadRows reads a YAML data document: a list of objects keyed by member
// name. Nested objects and lists are kept as maps and slices.
func LoadRows(path string) ([]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidData, Message: err.Error(), Path: path, Err: err}
	}

	out := make([]any, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, &LoadError{Code: ErrCodeInvalidData, Message: fmt.Sprintf("row %d is empty", i), Path: path}
		}
		out[i] = row
	}
	return out, nil
}

// readFile reads path, reporting a missing file as a LoadError.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Path: path, Err: err}
	}
	return data, nil
}
