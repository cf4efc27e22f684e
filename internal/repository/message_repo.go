package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"data-pipeline/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ColumnInfo describes one column of a stored table
type ColumnInfo struct {
	CID          int            `db:"cid"`
	Name         string         `db:"name"`
	Type         string         `db:"type"`
	NotNull      int            `db:"notnull"`
	DefaultValue sql.NullString `db:"dflt_value"`
	PK           int            `db:"pk"`
}

// MessageRepository writes cleaned message tables to SQLite
type MessageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMessageRepository opens (or creates) the SQLite file at dbPath
func NewMessageRepository(dbPath string, logger *zap.Logger) (*MessageRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps the whole write on one SQLite handle
	db.SetMaxOpenConns(1)

	logger.Info("Message repository initialized", zap.String("db_path", dbPath))

	return &MessageRepository{
		db:     db,
		logger: logger,
	}, nil
}

// DB exposes the underlying handle for read-back queries
func (r *MessageRepository) DB() *sqlx.DB {
	return r.db
}

// ReplaceTable drops any existing table called name and writes t in its
// place. The whole replacement runs in one transaction, so a failure leaves
// the previous contents in place.
func (r *MessageRepository) ReplaceTable(ctx context.Context, name string, t *models.Table) (err error) {
	if name == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", name)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			r.rollback(tx, name)
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", name, err)
	}

	if _, err = tx.ExecContext(ctx, createTableSQL(name, t)); err != nil {
		return fmt.Errorf("failed to create table %q: %w", name, err)
	}

	stmt, err := tx.PreparexContext(ctx, insertSQL(name, t.Columns))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			err = fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(t.Columns))
			return err
		}
		for j, c := range row {
			args[j] = c.Value()
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %q: %w", name, err)
	}

	r.logger.Info("Table replaced",
		zap.String("table", name),
		zap.Int("columns", len(t.Columns)),
		zap.Int("rows", t.Len()))

	return nil
}

// rollback undoes a failed replacement. A transaction that already ended,
// e.g. through a failed commit, has nothing left to roll back.
func (r *MessageRepository) rollback(tx *sqlx.Tx, name string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("Failed to roll back table replacement",
			zap.String("table", name), zap.Error(err))
	}
}

// CountRows returns the number of rows stored in a table
func (r *MessageRepository) CountRows(ctx context.Context, name string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+quoteIdent(name)); err != nil {
		return 0, fmt.Errorf("failed to count rows of %q: %w", name, err)
	}
	return n, nil
}

// Columns returns the stored schema of a table in column order
func (r *MessageRepository) Columns(ctx context.Context, name string) ([]ColumnInfo, error) {
	var cols []ColumnInfo
	if err := r.db.SelectContext(ctx, &cols, "PRAGMA table_info("+quoteIdent(name)+")"); err != nil {
		return nil, fmt.Errorf("failed to read schema of %q: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q does not exist", name)
	}
	return cols, nil
}

// Close closes the database connection
func (r *MessageRepository) Close() error {
	return r.db.Close()
}

func createTableSQL(name string, t *models.Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		kind := t.ColumnKind(i)
		if kind == models.KindNull {
			kind = models.KindText
		}
		defs[i] = quoteIdent(c) + " " + kind.String()
	}
	return "CREATE TABLE " + quoteIdent(name) + " (" + strings.Join(defs, ", ") + ")"
}

func insertSQL(name string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")
	return "INSERT INTO " + quoteIdent(name) + " (" + strings.Join(quoted, ", ") + ") VALUES (" + ph + ")"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
