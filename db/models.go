package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"doctables/lookup"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshot is one recorded generation of a table
type Snapshot struct {
	ID           string
	Target       string
	EntriesCount int
	CreatedAt    time.Time
	Entries      []lookup.Entry
}

// SaveTable records the entries of a freshly generated table
func (db *DB) SaveTable(ctx context.Context, target string, table *lookup.Table) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	entries := table.Entries()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO table_snapshots (id, target, entries_count)
		VALUES ($1, $2, $3)
	`, id, target, len(entries))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_entries (snapshot_id, position, key, value)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, i, e.Key, e.Value); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	db.logger.Info("snapshot saved", zap.String("target", target), zap.String("id", id), zap.Int("entries", len(entries)))
	return nil
}

// LatestSnapshot returns the most recent snapshot of target, or nil if the
// target was never recorded
func (db *DB) LatestSnapshot(ctx context.Context, target string) (*Snapshot, error) {
	var s Snapshot
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, target, entries_count, created_at
		FROM table_snapshots
		WHERE target = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, target).Scan(&s.ID, &s.Target, &s.EntriesCount, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT key, value
		FROM snapshot_entries
		WHERE snapshot_id = $1
		ORDER BY position ASC
	`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e lookup.Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, e)
	}
	return &s, rows.Err()
}
