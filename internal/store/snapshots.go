package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planora/planora/internal/plan"
)

// SaveSnapshot stores a snapshot keyed by its canonical hash and
// returns the hash. Saving an identical snapshot again is a silent
// no-op, so callers may save unconditionally before every run.
//
// The stored body is plain JSON for round-tripping; the key is the
// hash of the canonical form, so field order and derived annotations
// never produce a second copy of the same plan.
func (s *Store) SaveSnapshot(ctx context.Context, snap *plan.Snapshot) (string, error) {
	hash, err := snap.Hash()
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (hash, body, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	return hash, nil
}

// LoadSnapshot returns the snapshot stored under the given hash, or
// ErrNotFound.
func (s *Store) LoadSnapshot(ctx context.Context, hash string) (*plan.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE hash = ?`, hash).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load snapshot %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap plan.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("load snapshot: corrupt body: %w", err)
	}
	return &snap, nil
}

// ListSnapshots returns the hashes of all stored snapshots, newest
// first with hash as the deterministic tie-break.
func (s *Store) ListSnapshots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash FROM snapshots
		ORDER BY created_at DESC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	if hashes == nil {
		hashes = []string{}
	}
	return hashes, nil
}
