package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/structsync/structsync/utils"
)

var (
	// ErrConnection marks transport or authentication failures. Never
	// retried here; retry policy belongs to the caller.
	ErrConnection = errors.New("database connection failed")

	// ErrTableNotFound is returned by DescribeColumns when the table
	// does not exist at call time.
	ErrTableNotFound = errors.New("table not found")
)

// mysqlErrNoSuchTable is server error 1146 (ER_NO_SUCH_TABLE).
const mysqlErrNoSuchTable = 1146

// ColumnInfo is one row of SHOW COLUMNS, normalized to text.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable string // "YES" or "NO"
	Default  *string
	Extra    string
}

// ResultSet holds a fully buffered query result. Column names are
// read once from the result metadata, in driver order; every row's
// values follow that order.
type ResultSet struct {
	Columns []string
	Rows    [][]sql.NullString
}

// Conn is the database capability the core packages consume. It is
// passed explicitly so tests can substitute fakes and callers can run
// independent operations on independent connections.
type Conn interface {
	Execute(ctx context.Context, stmt string, args ...any) error
	Query(ctx context.Context, stmt string, args ...any) (*ResultSet, error)
	ListTableNames(ctx context.Context) ([]string, error)
	DescribeColumns(ctx context.Context, table string) ([]ColumnInfo, error)
}

// DB is the live MySQL implementation of Conn. Statements run in
// autocommit mode; database/sql reopens dropped connections on demand.
type DB struct {
	db *sql.DB
}

var _ Conn = (*DB)(nil)

var (
	shared     *DB
	sharedOnce sync.Once
	sharedErr  error
)

// Get returns the shared handle built from DATABASE_URL.
func Get() (*DB, error) {
	sharedOnce.Do(func() {
		utils.LoadEnv()
		shared, sharedErr = Open(utils.GetDatabaseURL())
	})
	return shared, sharedErr
}

// Open validates the DSN, connects and pings.
func Open(dsn string) (*DB, error) {
	// Validate the DSN early to provide actionable errors.
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("%w: invalid DSN: %v", ErrConnection, err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxOpenConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrConnection, err)
	}

	return &DB{db: db}, nil
}

// Ping verifies the connection is still usable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrConnection, err)
	}
	return nil
}

// Close releases the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Execute runs a statement that returns no rows.
func (d *DB) Execute(ctx context.Context, stmt string, args ...any) error {
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("executing %q: %w", firstWords(stmt), err)
	}
	return nil
}

// Query runs a statement and buffers the full result. Values arrive
// from the MySQL text protocol as bytes and are kept as strings; NULL
// is preserved via the Valid flag.
func (d *DB) Query(ctx context.Context, stmt string, args ...any) (*ResultSet, error) {
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", firstWords(stmt), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return rs, nil
}

// ListTableNames returns the database's table names in server order.
func (d *DB) ListTableNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SHOW TABLES;")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table names: %w", err)
	}
	return names, nil
}

// DescribeColumns returns SHOW COLUMNS for the table, normalized to
// text. A missing table maps to ErrTableNotFound.
func (d *DB) DescribeColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	stmt := fmt.Sprintf("SHOW COLUMNS FROM %s;", QuoteIdent(table))
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrNoSuchTable {
			return nil, fmt.Errorf("table %s: %w", table, ErrTableNotFound)
		}
		return nil, fmt.Errorf("describing table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var field, typ, nullable, key, def, extra sql.NullString
		if err := rows.Scan(&field, &typ, &nullable, &key, &def, &extra); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		info := ColumnInfo{
			Name:     field.String,
			Type:     typ.String,
			Nullable: nullable.String,
			Extra:    extra.String,
		}
		if def.Valid {
			v := def.String
			info.Default = &v
		}
		cols = append(cols, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns of %s: %w", table, err)
	}
	return cols, nil
}

// QuoteIdent backtick-quotes a MySQL identifier.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func firstWords(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
