// Package storage persists datasets, Monte Carlo tables and run metadata.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/san-kum/repressilator/internal/dataset"
)

//go:embed schema.sql
var schema string

var ErrNotFound = errors.New("storage: dataset not found")

// Attribute keys written alongside every dataset.
const (
	AttrEngineVersion = "engine_version"
	AttrModelID       = "model_id"
	AttrSystem        = "dynamical_system"
)

// Container is a single-file store of named numeric tables with string
// attributes, backed by SQLite.
type Container struct {
	db *sql.DB
}

func Open(path string) (*Container, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Container{db: db}, nil
}

func (c *Container) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Put stores header and rows under name, replacing any previous content.
func (c *Container) Put(ctx context.Context, name string, header []string, rows [][]float64, attrs map[string]string) error {
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", dataset.ErrShape, i, len(row), len(header))
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, n_rows, n_cols) VALUES (?, ?, ?)`,
		name, len(rows), len(header)); err != nil {
		return fmt.Errorf("insert %s: %w", name, err)
	}
	for j, label := range header {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO columns (dataset, idx, label) VALUES (?, ?, ?)`, name, j, label); err != nil {
			return fmt.Errorf("insert column %s: %w", label, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cells (dataset, row, col, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, row := range rows {
		for j, v := range row {
			if _, err := stmt.ExecContext(ctx, name, i, j, v); err != nil {
				return fmt.Errorf("insert cell (%d,%d): %w", i, j, err)
			}
		}
	}

	for k, v := range attrs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attributes (dataset, key, value) VALUES (?, ?, ?)`, name, k, v); err != nil {
			return fmt.Errorf("insert attribute %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Get reads the table stored under name.
func (c *Container) Get(ctx context.Context, name string) (header []string, rows [][]float64, err error) {
	var nRows, nCols int
	err = c.db.QueryRowContext(ctx, `SELECT n_rows, n_cols FROM datasets WHERE name = ?`, name).Scan(&nRows, &nCols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, nil, err
	}

	header = make([]string, nCols)
	colRows, err := c.db.QueryContext(ctx, `SELECT idx, label FROM columns WHERE dataset = ? ORDER BY idx`, name)
	if err != nil {
		return nil, nil, err
	}
	defer colRows.Close()
	for colRows.Next() {
		var idx int
		var label string
		if err := colRows.Scan(&idx, &label); err != nil {
			return nil, nil, err
		}
		header[idx] = label
	}
	if err := colRows.Err(); err != nil {
		return nil, nil, err
	}

	rows = make([][]float64, nRows)
	for i := range rows {
		rows[i] = make([]float64, nCols)
	}
	cells, err := c.db.QueryContext(ctx, `SELECT row, col, value FROM cells WHERE dataset = ?`, name)
	if err != nil {
		return nil, nil, err
	}
	defer cells.Close()
	for cells.Next() {
		var i, j int
		var v float64
		if err := cells.Scan(&i, &j, &v); err != nil {
			return nil, nil, err
		}
		rows[i][j] = v
	}
	return header, rows, cells.Err()
}

func (c *Container) Attributes(ctx context.Context, name string) (map[string]string, error) {
	var exists int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE name = ?`, name).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT key, value FROM attributes WHERE dataset = ?`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attrs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		attrs[k] = v
	}
	return attrs, rows.Err()
}

// Names lists stored dataset names.
func (c *Container) Names(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// WriteDataset stores an observation table in the container file at path.
func WriteDataset(ctx context.Context, path, name string, table *dataset.Table, attrs map[string]string) error {
	c, err := Open(path)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Put(ctx, name, table.Header(), table.Matrix(), attrs)
}

// ReadDataset loads an observation table; the first stored column is time.
func ReadDataset(ctx context.Context, path, name string) (*dataset.Table, error) {
	c, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	header, rows, err := c.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %s has no columns", dataset.ErrShape, name)
	}
	table, err := dataset.FromMatrix(header[1:], rows)
	if err != nil {
		return nil, err
	}
	return table, table.Validate()
}

func ReadAttributes(ctx context.Context, path, name string) (map[string]string, error) {
	c, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Attributes(ctx, name)
}
