package datasource

import (
	"context"
	"database/sql"
	"time"

	errx "github.com/datachat-poc/server/internal/core/error"
)

// Config holds connection settings for the analytical database.
type Config struct {
	Driver          string `split_words:"true" default:"mysql"`
	DSN             string `split_words:"true" required:"true"`
	MaxOpenConns    int    `split_words:"true" default:"5"`
	MaxIdleConns    int    `split_words:"true" default:"2"`
	ConnMaxLifetime int    `split_words:"true" default:"300"`
}

// Open creates the database handle and verifies connectivity.
func (c *Config) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, errx.WrapDatasource(err)
	}

	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errx.WrapDatasource(err)
	}

	return db, nil
}

// SQLSource implements Queryer over database/sql. Each call borrows a
// dedicated connection from the pool and releases it before returning, so a
// slow chart query cannot pin a connection across turns.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource wraps an open database handle.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

var _ Queryer = (*SQLSource)(nil)

// Query runs the statement and materialises every row.
func (s *SQLSource) Query(ctx context.Context, query string) (*Table, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errx.WrapDatasource(err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	table := &Table{Columns: cols}
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range cells {
			if b, ok := v.([]byte); ok {
				cells[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return table, nil
}
