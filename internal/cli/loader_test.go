package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoot(t *testing.T) {
	root, err := LoadRoot("testdata/model.yaml", "Customer")
	require.NoError(t, err)
	assert.Equal(t, "Customer", root.Name())

	orders, ok := root.Member("Orders")
	require.True(t, ok)
	assert.True(t, orders.Type.IsCollection())
}

func TestLoadRoot_Errors(t *testing.T) {
	dir := t.TempDir()
	badModel := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badModel, []byte("types:\n  A:\n    B: \"[]Missing\"\n"), 0o644))

	tests := []struct {
		name     string
		model    string
		root     string
		wantCode string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), "Customer", ErrCodeNotFound},
		{"invalid model", badModel, "A", ErrCodeInvalidModel},
		{"unknown root", "testdata/model.yaml", "Invoice", ErrCodeUnknownRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoot(tt.model, tt.root)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.wantCode, loadErr.Code)
			assert.Equal(t, tt.model, loadErr.Path)
		})
	}
}

func TestLoadRows(t *testing.T) {
	rows, err := LoadRows("testdata/customers.yaml")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	ada := rows[0].(map[string]any)
	assert.Equal(t, "Ada", ada["Name"])
	assert.Equal(t, 1, ada["Id"])
	assert.Len(t, ada["Orders"], 3)
	assert.Equal(t, "N1", ada["Address"].(map[string]any)["Zip"])
	assert.NotContains(t, rows[2].(map[string]any), "Address")
}

func TestLoadRows_Errors(t *testing.T) {
	dir := t.TempDir()
	scalar := filepath.Join(dir, "scalar.yaml")
	require.NoError(t, os.WriteFile(scalar, []byte("just a string\n"), 0o644))
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("- {Id: 1}\n- \n"), 0o644))

	for _, path := range []string{scalar, empty} {
		_, err := LoadRows(path)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr, path)
		assert.Equal(t, ErrCodeInvalidData, loadErr.Code)
	}
}
