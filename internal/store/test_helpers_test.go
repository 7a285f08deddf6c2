package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/expandql/internal/testutil"
	"github.com/roach88/expandql/internal/typeinfo"
)

var customerType = typeinfo.For[testutil.Customer]()

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// loadTestStore creates a store holding rows in the table for t.
func loadTestStore(t *testing.T, desc typeinfo.TypeDescriptor, rows []any) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, desc))
	require.NoError(t, s.Insert(ctx, desc, rows))
	return s
}

// normalize widens Go integer kinds to int64, the type SQLite returns for
// INTEGER columns.
func normalize(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		n := make(map[string]any, len(row))
		for k, v := range row {
			if iv, ok := v.(int); ok {
				v = int64(iv)
			}
			n[k] = v
		}
		out[i] = n
	}
	return out
}
