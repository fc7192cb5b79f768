package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planora/planora/internal/scheduler"
)

// RunRecord is one persisted scheduling run: the input snapshot it was
// computed from, the mode and horizon, and the full result.
type RunRecord struct {
	ID           string            `json:"id"`
	SnapshotHash string            `json:"snapshot_hash"`
	Mode         scheduler.Mode    `json:"mode"`
	HorizonStart time.Time         `json:"horizon_start"`
	HorizonDays  int               `json:"horizon_days"`
	Result       *scheduler.Result `json:"result"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SaveRun appends a run record. The referenced snapshot must already
// be stored (foreign key). Duplicate run IDs are silently ignored so
// retried saves stay idempotent.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save run: id must not be empty")
	}

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, snapshot_hash, mode, horizon_start, horizon_days, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SnapshotHash,
		string(rec.Mode),
		rec.HorizonStart.UTC().Format(time.RFC3339),
		rec.HorizonDays,
		string(resultJSON),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	return nil
}

// LoadRun returns the run stored under the given ID, or ErrNotFound.
func (s *Store) LoadRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, snapshot_hash, mode, horizon_start, horizon_days, result, created_at
		FROM runs
		WHERE id = ?
	`, id)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	return rec, nil
}

// ListRuns returns all runs for a snapshot hash, newest first with run
// ID as the deterministic tie-break. Returns an empty slice (not nil)
// when no runs exist.
func (s *Store) ListRuns(ctx context.Context, snapshotHash string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snapshot_hash, mode, horizon_start, horizon_days, result, created_at
		FROM runs
		WHERE snapshot_hash = ?
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`, snapshotHash)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	if recs == nil {
		recs = []RunRecord{}
	}
	return recs, nil
}

// LatestRun returns the most recently saved run across all snapshots,
// or ErrNotFound when the store holds no runs.
func (s *Store) LatestRun(ctx context.Context) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, snapshot_hash, mode, horizon_start, horizon_days, result, created_at
		FROM runs
		ORDER BY created_at DESC, id COLLATE BINARY ASC
		LIMIT 1
	`)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return rec, nil
}

// scanTarget abstracts sql.Row and sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanRun(row scanTarget) (*RunRecord, error) {
	var (
		rec          RunRecord
		mode         string
		horizonStart string
		resultJSON   string
		createdAt    string
	)
	if err := row.Scan(&rec.ID, &rec.SnapshotHash, &mode, &horizonStart,
		&rec.HorizonDays, &resultJSON, &createdAt); err != nil {
		return nil, err
	}

	rec.Mode = scheduler.Mode(mode)

	start, err := time.Parse(time.RFC3339, horizonStart)
	if err != nil {
		return nil, fmt.Errorf("corrupt horizon_start: %w", err)
	}
	rec.HorizonStart = start

	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}
	rec.CreatedAt = created

	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("corrupt result: %w", err)
	}

	return &rec, nil
}
