package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"askdata/internal/dataset"
)

// Config holds connection details for an external data source.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// DataSource imports tabular data from an external system.
type DataSource interface {
	Connect(ctx context.Context) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	ImportTable(ctx context.Context, table string, limit int) (*dataset.Dataset, error)
}

// defaultImportLimit caps rows pulled per table import.
const defaultImportLimit = 10000

// PostgresSource implements DataSource for PostgreSQL.
type PostgresSource struct {
	cfg Config
	db  *sql.DB
}

// NewPostgresSource prepares a source; Connect must be called before use.
func NewPostgresSource(cfg Config) *PostgresSource {
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return &PostgresSource{cfg: cfg}
}

// Connect opens and verifies the connection.
func (p *PostgresSource) Connect(ctx context.Context) error {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.cfg.Host, p.cfg.Port, p.cfg.User, p.cfg.Password, p.cfg.DBName, p.cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging postgres: %w", err)
	}
	p.db = db
	return nil
}

// Connected reports whether Connect has succeeded.
func (p *PostgresSource) Connected() bool { return p.db != nil }

// Close releases the connection if one is open.
func (p *PostgresSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// ListTables returns the public-schema table names.
func (p *PostgresSource) ListTables(ctx context.Context) ([]string, error) {
	if p.db == nil {
		return nil, fmt.Errorf("postgres source is not connected")
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ImportTable pulls up to limit rows of a table into a Dataset. The table
// name is checked against the catalog and quoted before interpolation.
// NULLs become empty cells; every other value is rendered as text.
func (p *PostgresSource) ImportTable(ctx context.Context, table string, limit int) (*dataset.Dataset, error) {
	if p.db == nil {
		return nil, fmt.Errorf("postgres source is not connected")
	}
	if limit <= 0 {
		limit = defaultImportLimit
	}

	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, t := range tables {
		if t == table {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(table), limit)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying table %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var data [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		record := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		data = append(data, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	return &dataset.Dataset{
		Name:       table,
		Columns:    columns,
		Rows:       data,
		SourceFile: fmt.Sprintf("postgres:%s/%s", p.cfg.DBName, table),
		LoadedAt:   time.Now(),
	}, nil
}
