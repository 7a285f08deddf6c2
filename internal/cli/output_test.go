package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/querysql"
	"github.com/roach88/expandql/internal/translate"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.SuccessWithID(map[string]int{"count": 2}, "plan-1"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "plan-1", resp.TranslationID)
	assert.Equal(t, map[string]any{"count": float64(2)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeUnknownMember, "no member Nickname", []string{"City", "Name"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E101", resp.Error.Code)
	assert.Equal(t, "no member Nickname", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Empty(t, resp.TranslationID)
}

func TestOutputFormatter_TextSuccessUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(RunResult{Count: 1, Rows: []map[string]any{{"Name": "Ada"}}}))
	assert.Equal(t, "count: 1\n{\"Name\":\"Ada\"}\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E001", "translation failed", map[string]string{"file": "q.yaml"}))
			assert.Contains(t, buf.String(), "Error [E001]: translation failed")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("loaded %d row(s)", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "loaded 3 row(s)\n", diag.String())

	quiet := &OutputFormatter{Format: "text", Writer: out}
	quiet.VerboseLog("hidden")
	assert.Empty(t, out.String())
	assert.Same(t, out, quiet.GetErrWriter())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(&LoadError{Code: ErrCodeNotFound, Message: "no such file", Path: "q.yaml"})
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E002]: q.yaml: E002: no such file")

	buf.Reset()
	err = formatter.Fail(fmt.Errorf("select: %w", &translate.UnknownMemberError{Type: "Customer", Member: "Nope"}))
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E101]")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"load", &LoadError{Code: ErrCodeInvalidModel}, ErrCodeInvalidModel},
		{"unknown member", &translate.UnknownMemberError{Type: "T", Member: "M"}, ErrCodeUnknownMember},
		{"unsupported", fmt.Errorf("orderby: %w", &translate.UnsupportedClauseError{Kind: "orderby"}), ErrCodeUnsupportedClause},
		{"malformed", &translate.MalformedChainError{Reason: "nil"}, ErrCodeMalformedChain},
		{"bind", fmt.Errorf("filter: %w", &queryopts.BindError{Node: "eq", Reason: "bad"}), ErrCodeInvalidFilter},
		{"document", fmt.Errorf("%w: top", queryopts.ErrInvalidDocument), ErrCodeInvalidQuery},
		{"sql", fmt.Errorf("compile orderby: %w", querysql.ErrUnsupported), ErrCodeUnsupportedSQL},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "missing file")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: inner: cause", wrapped.Error())
}
