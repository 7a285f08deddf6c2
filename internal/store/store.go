package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/expandql/internal/memquery"
	"github.com/roach88/expandql/internal/querysql"
	"github.com/roach88/expandql/internal/translate"
	"github.com/roach88/expandql/internal/typeinfo"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - loaded_tables metadata
const currentSchemaVersion = 1

// Store holds data tables for compiled queries.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// TableInfo describes a loaded data table.
type TableInfo struct {
	Name     string   `json:"name"`
	TypeName string   `json:"type"`
	Columns  []string `json:"columns"`
	Rows     int64    `json:"rows"`
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateTable creates the table for elements of t if it does not exist and
// records it in loaded_tables.
func (s *Store) CreateTable(ctx context.Context, t typeinfo.TypeDescriptor) error {
	elem := typeinfo.Current(t)
	if elem == nil || elem.IsScalar() {
		return fmt.Errorf("create table: %v is not an object type", t)
	}

	columns := querysql.Columns(elem)
	if len(columns) == 0 {
		return fmt.Errorf("create table: %s has no scalar members", elem.Name())
	}

	defs := make([]string, len(columns))
	for i, m := range columns {
		defs[i] = querysql.Quote(m.Name) + " " + affinity(m.Type)
	}

	table := querysql.TableName(elem)
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", querysql.Quote(table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loaded_tables (name, type_name, columns)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, table, elem.Name(), strings.Join(typeinfo.MemberNames(columns), ","))
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// Insert appends rows to the table for elements of t, in order, in one
// transaction. Rows are Go values of the element type or maps keyed by
// member name; their scalar members are read with the same projection the
// translator compiles for the root.
func (s *Store) Insert(ctx context.Context, t typeinfo.TypeDescriptor, rows []any) error {
	elem := typeinfo.Current(t)
	table := querysql.TableName(elem)

	selectors, err := translate.BuildProjection(elem, nil, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	values, err := memquery.Materialize(selectors, rows)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}

	columns := querysql.Columns(elem)
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, m := range columns {
		quoted[i] = querysql.Quote(m.Name)
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		querysql.Quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: begin: %w", table, err)
	}
	defer tx.Rollback()

	for i, obj := range values {
		args := make([]any, len(columns))
		for c, m := range columns {
			args[c] = obj[m.Name]
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert into %s: row %d: %w", table, i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE loaded_tables SET row_count = row_count + ? WHERE name = ?",
		len(values), table,
	); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert into %s: commit: %w", table, err)
	}
	return nil
}

// Query executes a query and returns one map per row keyed by column name.
// TEXT values come back as strings. Returns an empty slice (not nil) when
// no rows match.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Tables returns the loaded data tables ordered by name.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type_name, columns, row_count
		FROM loaded_tables
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []TableInfo{}
	for rows.Next() {
		var info TableInfo
		var columns string
		if err := rows.Scan(&info.Name, &info.TypeName, &columns, &info.Rows); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		info.Columns = strings.Split(columns, ",")
		tables = append(tables, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// affinity maps a scalar member type to a SQLite column type. The driver
// converts BOOLEAN and TIMESTAMP columns back to bool and time.Time.
func affinity(t typeinfo.TypeDescriptor) string {
	name := t.Name()
	switch {
	case strings.HasPrefix(name, "int"), strings.HasPrefix(name, "uint"):
		return "INTEGER"
	case strings.HasPrefix(name, "float"):
		return "REAL"
	case name == "string":
		return "TEXT"
	case name == "bool":
		return "BOOLEAN"
	case name == "time.Time":
		return "TIMESTAMP"
	default:
		return "BLOB"
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the metadata table if it doesn't exist and records
// the schema version. This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
