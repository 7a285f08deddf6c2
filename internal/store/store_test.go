package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/expandql/internal/memquery"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/querysql"
	"github.com/roach88/expandql/internal/testutil"
	"github.com/roach88/expandql/internal/translate"
	"github.com/roach88/expandql/internal/typeinfo"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateTable(ctx, customerType))
	require.NoError(t, s.Insert(ctx, customerType, testutil.CustomersAsAny()))
	require.NoError(t, s.Close())

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, int64(3), tables[0].Rows)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.expected))
		})
	}
}

func TestCreateTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTable(ctx, customerType))
	// Idempotent.
	require.NoError(t, s.CreateTable(ctx, typeinfo.Sequence(customerType, true)))

	rows, err := s.Query(ctx, `SELECT name, type FROM pragma_table_info('Customer') ORDER BY cid`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"name": "Id", "type": "INTEGER"},
		{"name": "Name", "type": "TEXT"},
		{"name": "City", "type": "TEXT"},
	}, rows)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TableInfo{
		{Name: "Customer", TypeName: "testutil.Customer", Columns: []string{"Id", "Name", "City"}},
	}, tables)
}

func TestCreateTable_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.CreateTable(ctx, typeinfo.String))
	assert.Error(t, s.CreateTable(ctx, nil))
}

func TestAffinity(t *testing.T) {
	tests := []struct {
		t    typeinfo.TypeDescriptor
		want string
	}{
		{typeinfo.Int, "INTEGER"},
		{typeinfo.Int64, "INTEGER"},
		{typeinfo.For[uint8](), "INTEGER"},
		{typeinfo.Float, "REAL"},
		{typeinfo.For[float32](), "REAL"},
		{typeinfo.String, "TEXT"},
		{typeinfo.Bool, "BOOLEAN"},
		{typeinfo.Time, "TIMESTAMP"},
		{typeinfo.For[time.Time](), "TIMESTAMP"},
		{typeinfo.Object, "BLOB"},
	}

	for _, tt := range tests {
		t.Run(tt.t.Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, affinity(tt.t))
		})
	}
}

func TestInsertAndQuery(t *testing.T) {
	s := loadTestStore(t, customerType, testutil.CustomersAsAny())

	rows, err := s.Query(context.Background(), `SELECT "Id", "Name" FROM "Customer" WHERE "City" = ? ORDER BY rowid`, "London")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"Id": int64(1), "Name": "Ada"},
		{"Id": int64(3), "Name": "Alan"},
	}, rows)

	rows, err = s.Query(context.Background(), `SELECT "Id" FROM "Customer" WHERE "City" = ?`, "Paris")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestInsert_ModelRows(t *testing.T) {
	model, err := typeinfo.LoadModel([]byte(testutil.FixtureModel))
	require.NoError(t, err)
	order, ok := model.Type("Order")
	require.True(t, ok)

	s := loadTestStore(t, order, []any{
		map[string]any{"Id": 10, "Total": 25.5, "Status": "open"},
		map[string]any{"Id": 11, "Total": 5.0},
	})

	rows, err := s.Query(context.Background(), `SELECT * FROM "Order" ORDER BY rowid`)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"Id": int64(10), "Total": 25.5, "Status": "open"},
		{"Id": int64(11), "Total": float64(5), "Status": nil},
	}, rows)
}

func TestInsert_TypedValues(t *testing.T) {
	type Event struct {
		Id      int
		Active  bool
		Created time.Time
	}
	eventType := typeinfo.For[Event]()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s := loadTestStore(t, eventType, []any{Event{Id: 1, Active: true, Created: created}})

	rows, err := s.Query(context.Background(), `SELECT "Active", "Created" FROM "Event"`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, true, rows[0]["Active"])
	got, ok := rows[0]["Created"].(time.Time)
	require.True(t, ok, "Created = %T", rows[0]["Created"])
	assert.True(t, created.Equal(got))
}

func TestInsert_CountsRows(t *testing.T) {
	s := loadTestStore(t, customerType, testutil.CustomersAsAny())
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, customerType, testutil.Numbered(2)))

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, int64(5), tables[0].Rows)
}

func TestInsert_MissingTable(t *testing.T) {
	s := createTestStore(t)
	err := s.Insert(context.Background(), customerType, testutil.CustomersAsAny())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert into Customer")
}

// TestCompiledQueries_MatchInMemory runs flat query documents through both
// providers: the translated pipeline and selectors evaluated in memory, and
// the compiled SQL executed against the store.
func TestCompiledQueries_MatchInMemory(t *testing.T) {
	data := append(testutil.CustomersAsAny(), testutil.Customer{Id: 4, Name: "Ada", City: "Paris"})

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "everything",
			doc:  `{}`,
		},
		{
			name: "filter and descending order",
			doc: `
filter: {op: eq, args: [{path: City}, {value: London}]}
orderby: [{path: Name, desc: true}]
select: [Name]
`,
		},
		{
			name: "then-by keeps ties stable",
			doc: `
orderby: [{path: Name}]
select: [Id, Name]
`,
		},
		{
			name: "compound filter with paging",
			doc: `
filter:
  op: or
  args:
    - {op: gt, args: [{path: Id}, {value: 2}]}
    - {op: eq, args: [{path: Name}, {value: Grace}]}
orderby: [{path: City}, {path: Id, desc: true}]
skip: 1
top: 2
`,
		},
		{
			name: "skip without take",
			doc: `
orderby: [{path: Id, desc: true}]
skip: 2
`,
		},
		{
			name: "unordered take",
			doc: `
skip: 1
top: 2
`,
		},
		{
			name: "negation",
			doc: `
filter: {op: not, args: [{op: eq, args: [{path: City}, {value: London}]}]}
select: [Id]
`,
		},
	}

	s := loadTestStore(t, customerType, data)
	tr := translate.New(
		translate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		translate.WithIDGenerator(testutil.NewFixedIDGenerator("store")),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := queryopts.LoadDocument([]byte(tt.doc))
			require.NoError(t, err)
			opts, err := doc.Options(customerType)
			require.NoError(t, err)
			plan, err := tr.Translate(opts, customerType)
			require.NoError(t, err)

			pipeline, err := plan.Pipeline()
			require.NoError(t, err)
			items, err := memquery.Run(pipeline, data)
			require.NoError(t, err)
			want, err := memquery.Materialize(plan.Selectors, items)
			require.NoError(t, err)

			query, params, err := querysql.NewSQLCompiler().Compile(plan)
			require.NoError(t, err)
			got, err := s.Query(context.Background(), query, params...)
			require.NoError(t, err)

			assert.Equal(t, normalize(want), got, "sql: %s", query)
		})
	}
}
