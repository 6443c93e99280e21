package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RecordSnapshot persists a dataset snapshot. Recording the same content
// hash again returns the existing snapshot instead of inserting a duplicate.
func (s *SQLiteStore) RecordSnapshot(snap *Snapshot) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	if existing, err := s.GetSnapshotByHash(snap.Hash); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Debug("snapshot already recorded", slog.String("hash", snap.Hash))
		return existing, nil
	}

	created := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO snapshots (hash, source_path, table_name, row_count, column_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Hash, snap.SourcePath, snap.Table, snap.Rows, snap.Columns, created,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	out := *snap
	out.ID = id
	out.CreatedAt = created
	return &out, nil
}

// GetSnapshotByHash retrieves a snapshot by content hash.
// Returns nil without error when none exists.
func (s *SQLiteStore) GetSnapshotByHash(hash string) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	snap := &Snapshot{}
	err := s.db.QueryRow(
		`SELECT id, hash, source_path, table_name, row_count, column_count, created_at
		 FROM snapshots WHERE hash = ?`,
		hash,
	).Scan(&snap.ID, &snap.Hash, &snap.SourcePath, &snap.Table, &snap.Rows, &snap.Columns, &snap.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots retrieves the most recent snapshots up to the given limit.
func (s *SQLiteStore) ListSnapshots(limit int) ([]*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, hash, source_path, table_name, row_count, column_count, created_at
		 FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Hash, &snap.SourcePath, &snap.Table,
			&snap.Rows, &snap.Columns, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}
