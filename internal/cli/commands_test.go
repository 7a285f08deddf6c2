package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/expandql/internal/testutil"
)

const (
	modelPath = "testdata/model.yaml"
	dataPath  = "testdata/customers.yaml"
)

// execute runs a command with a fixed translation id and returns its
// stdout and stderr.
func execute(t *testing.T, newCmd func(*RootOptions) *cobra.Command, opts RootOptions, args ...string) (string, string, error) {
	t.Helper()
	if opts.Format == "" {
		opts.Format = "text"
	}
	opts.IDGenerator = testutil.NewFixedIDGenerator("cli-1")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := newCmd(&opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// queryArgs prefixes the model and root flags.
func queryArgs(args ...string) []string {
	return append([]string{"--model", modelPath, "--root", "Customer"}, args...)
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestTranslate_Golden(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"translate_london", queryArgs("testdata/london.yaml")},
		{"translate_london_param", queryArgs("--param", "c", "testdata/london.yaml")},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewTranslateCommand, RootOptions{}, tt.args...)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestTranslate_JSON(t *testing.T) {
	out, _, err := execute(t, NewTranslateCommand, RootOptions{Format: "json"}, queryArgs("testdata/london.yaml")...)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cli-1", resp.TranslationID)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Customer", data["root"])
	assert.Equal(t, float64(2), data["top"])
	assert.Len(t, data["selectors"], 2)
}

func TestTranslate_VerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, NewTranslateCommand, RootOptions{Format: "json", Verbose: true}, queryArgs("testdata/london.yaml")...)
	require.NoError(t, err)

	decodeResponse(t, out)
	assert.Contains(t, errOut, "translation_id=cli-1")
	assert.Contains(t, errOut, `msg="filter compiled"`)
	assert.Contains(t, errOut, `msg="projection compiled"`)
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"unknown filter member", queryArgs("testdata/unknown_member.yaml"), ErrCodeInvalidFilter, ExitFailure},
		{"invalid document", queryArgs("testdata/invalid.yaml"), ErrCodeInvalidQuery, ExitCommandError},
		{"missing query", queryArgs("testdata/nope.yaml"), ErrCodeNotFound, ExitCommandError},
		{"unknown root", []string{"--model", modelPath, "--root", "Invoice", "testdata/london.yaml"}, ErrCodeUnknownRoot, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewTranslateCommand, RootOptions{Format: "json"}, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"schema only", []string{"testdata/london.yaml"}},
		{"against model", queryArgs("testdata/london.yaml")},
		{"nested options", queryArgs("--nested", "testdata/flat.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewValidateCommand, RootOptions{}, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, "✓ Query valid\n", out)
		})
	}
}

func TestValidate_SchemaOnlyMissesModelErrors(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand, RootOptions{}, "testdata/unknown_member.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Query valid")

	out, _, err = execute(t, NewValidateCommand, RootOptions{}, queryArgs("testdata/unknown_member.yaml")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, ErrCodeInvalidFilter)
}

func TestValidate_InvalidDocumentJSON(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand, RootOptions{Format: "json"}, "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidQuery, resp.Error.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Len(t, data["errors"], 1)
}

func TestValidate_ModelRequiresRoot(t *testing.T) {
	_, _, err := execute(t, NewValidateCommand, RootOptions{}, "--model", modelPath, "testdata/london.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestRun(t *testing.T) {
	out, _, err := execute(t, NewRunCommand, RootOptions{}, queryArgs("--data", dataPath, "testdata/london.yaml")...)
	require.NoError(t, err)

	assert.Equal(t, `count: 2
{"Name":"Ada","Orders":[{"Id":10,"Total":25.5},{"Id":11,"Total":5},{"Id":12,"Total":99.99}]}
{"Name":"Alan","Orders":[{"Id":30,"Total":7.25},{"Id":31,"Total":42}]}
`, out)
}

func TestRun_JSON(t *testing.T) {
	out, _, err := execute(t, NewRunCommand, RootOptions{Format: "json"}, queryArgs("--data", dataPath, "testdata/flat.yaml")...)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "cli-1", resp.TranslationID)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, []any{map[string]any{"Id": float64(1), "Name": "Ada"}}, data["rows"])
}

func TestRun_MissingData(t *testing.T) {
	out, _, err := execute(t, NewRunCommand, RootOptions{}, queryArgs("--data", "testdata/nope.yaml", "testdata/flat.yaml")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestSQL_CompileOnly(t *testing.T) {
	out, _, err := execute(t, NewSQLCommand, RootOptions{}, queryArgs("testdata/flat.yaml")...)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "Id", "Name" FROM "Customer" WHERE ("City" IS NOT ?) ORDER BY "Name" COLLATE BINARY DESC, rowid ASC LIMIT -1 OFFSET ?
params: [Arlington 1]
`, out)
}

func TestSQL_ExecuteMatchesRun(t *testing.T) {
	sqlOut, _, err := execute(t, NewSQLCommand, RootOptions{Format: "json"}, queryArgs("--data", dataPath, "testdata/flat.yaml")...)
	require.NoError(t, err)
	runOut, _, err := execute(t, NewRunCommand, RootOptions{Format: "json"}, queryArgs("--data", dataPath, "testdata/flat.yaml")...)
	require.NoError(t, err)

	sqlData := decodeResponse(t, sqlOut).Data.(map[string]any)
	runData := decodeResponse(t, runOut).Data.(map[string]any)
	assert.Equal(t, []any{"Arlington", float64(1)}, sqlData["params"])
	assert.Equal(t, runData["rows"], sqlData["rows"])
}

func TestSQL_PersistentDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data.db")

	first, _, err := execute(t, NewSQLCommand, RootOptions{}, queryArgs("--db", db, "--data", dataPath, "testdata/flat.yaml")...)
	require.NoError(t, err)
	second, _, err := execute(t, NewSQLCommand, RootOptions{Verbose: true}, queryArgs("--db", db, "testdata/flat.yaml")...)
	require.NoError(t, err)

	assert.Contains(t, first, `{"Id":1,"Name":"Ada"}`)
	assert.Equal(t, first, second)
}

func TestSQL_Unsupported(t *testing.T) {
	out, _, err := execute(t, NewSQLCommand, RootOptions{}, queryArgs("testdata/london.yaml")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}

func TestSQL_MissingTable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	out, _, err := execute(t, NewSQLCommand, RootOptions{}, queryArgs("--db", db, "testdata/flat.yaml")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}
