package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DB wraps the database connection used to record generated tables
type DB struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewDB opens the snapshot database and makes sure its schema exists
func NewDB(ctx context.Context, connStr string, logger *zap.Logger) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS table_snapshots (
			id UUID PRIMARY KEY,
			target VARCHAR(255) NOT NULL,
			entries_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table_snapshots table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshot_entries (
			snapshot_id UUID NOT NULL REFERENCES table_snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot_entries table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_table_snapshots_target ON table_snapshots(target, created_at)`)
	if err != nil {
		db.logger.Warn("failed to create index on table_snapshots.target", zap.Error(err))
	}

	db.logger.Debug("snapshot schema initialized")
	return nil
}
