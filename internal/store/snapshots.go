package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
)

// Snapshot is one timestamped capture of a data source's state. Snapshots
// sharing the same (SourceKey, DocType) form a partition ordered by
// Timestamp; ties are broken by insertion order. Payload is the JSON
// document written at capture time and is never mutated afterwards.
type Snapshot struct {
	ID        int64           `json:"-"`
	SourceKey string          `json:"source_key,omitempty"`
	DocType   string          `json:"doc_type"`
	Timestamp float64         `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DiffEntry describes the change between two adjacent snapshots of a
// document type. Added holds payload records present in the later snapshot
// but not the earlier one; Removed the converse.
type DiffEntry struct {
	TimestampBefore float64           `json:"timestamp_before"`
	TimestampAfter  float64           `json:"timestamp_after"`
	Added           []json.RawMessage `json:"added"`
	Removed         []json.RawMessage `json:"removed"`
}

// SnapshotStore is the bounded-retention snapshot time series.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a SnapshotStore. The snapshots table must exist
// (run SnapshotMigrations first).
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SnapshotMigrations returns the schema migrations for the snapshot store.
func SnapshotMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create snapshots table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS snapshots (
						id         INTEGER PRIMARY KEY AUTOINCREMENT,
						source_key TEXT NOT NULL DEFAULT '',
						doc_type   TEXT NOT NULL,
						ts         REAL NOT NULL,
						payload    TEXT NOT NULL
					);
					CREATE INDEX IF NOT EXISTS idx_snapshots_partition
						ON snapshots (source_key, doc_type, ts DESC);
				`)
				return err
			},
		},
	}
}

// Insert appends a snapshot to the (sourceKey, docType) partition and then
// trims the partition down to the maxHistory newest entries. Duplicate
// timestamps are allowed; ordering falls back to insertion order. The trim
// runs on every insert so a long-running poller never needs an external
// cleanup job.
func (s *SnapshotStore) Insert(ctx context.Context, sourceKey, docType string, payload any, timestamp float64, maxHistory int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", docType, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (source_key, doc_type, ts, payload) VALUES (?, ?, ?, ?)`,
		sourceKey, docType, timestamp, string(data),
	); err != nil {
		return fmt.Errorf("insert snapshot %s/%s: %w", sourceKey, docType, err)
	}

	return s.trim(ctx, sourceKey, docType, maxHistory)
}

// trim deletes all but the maxHistory newest snapshots in a partition.
// Surplus rows are selected by (ts, id) so that snapshots sharing a
// timestamp are trimmed one at a time, oldest insertion first.
func (s *SnapshotStore) trim(ctx context.Context, sourceKey, docType string, maxHistory int) error {
	if maxHistory < 0 {
		maxHistory = 0
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE source_key = ? AND doc_type = ? AND id NOT IN (
			SELECT id FROM snapshots
			WHERE source_key = ? AND doc_type = ?
			ORDER BY ts DESC, id DESC
			LIMIT ?
		)`,
		sourceKey, docType, sourceKey, docType, maxHistory,
	)
	if err != nil {
		return fmt.Errorf("trim snapshots %s/%s: %w", sourceKey, docType, err)
	}
	return nil
}

// Latest returns the newest snapshot in a partition, or nil if the
// partition is empty. An empty partition is an expected steady state, not
// an error.
func (s *SnapshotStore) Latest(ctx context.Context, sourceKey, docType string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_key, doc_type, ts, payload FROM snapshots
		WHERE source_key = ? AND doc_type = ?
		ORDER BY ts DESC, id DESC LIMIT 1`,
		sourceKey, docType,
	)

	var snap Snapshot
	var payload string
	err := row.Scan(&snap.ID, &snap.SourceKey, &snap.DocType, &snap.Timestamp, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot %s/%s: %w", sourceKey, docType, err)
	}
	snap.Payload = json.RawMessage(payload)
	return &snap, nil
}

// History returns the full partition sorted newest-first.
func (s *SnapshotStore) History(ctx context.Context, sourceKey, docType string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_key, doc_type, ts, payload FROM snapshots
		WHERE source_key = ? AND doc_type = ?
		ORDER BY ts DESC, id DESC`,
		sourceKey, docType,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot history %s/%s: %w", sourceKey, docType, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Diff compares each adjacent pair of snapshots of a document type in
// descending-timestamp order. Pairs with structurally identical payloads
// are omitted. Fewer than two snapshots yields an empty result.
func (s *SnapshotStore) Diff(ctx context.Context, docType string) ([]DiffEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_key, doc_type, ts, payload FROM snapshots
		WHERE doc_type = ?
		ORDER BY ts DESC, id DESC`,
		docType,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot diff %s: %w", docType, err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return []DiffEntry{}, nil
	}

	results := []DiffEntry{}
	for i := 0; i+1 < len(snaps); i++ {
		after, before := snaps[i], snaps[i+1]

		added, removed, err := diffPayloads(before.Payload, after.Payload)
		if err != nil {
			return nil, fmt.Errorf("diff %s pair (%f, %f): %w", docType, before.Timestamp, after.Timestamp, err)
		}
		if len(added) == 0 && len(removed) == 0 {
			continue
		}
		results = append(results, DiffEntry{
			TimestampBefore: before.Timestamp,
			TimestampAfter:  after.Timestamp,
			Added:           added,
			Removed:         removed,
		})
	}
	return results, nil
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var payload string
		if err := rows.Scan(&snap.ID, &snap.SourceKey, &snap.DocType, &snap.Timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Payload = json.RawMessage(payload)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// diffPayloads computes the structural set difference between two payload
// record lists in both directions. A malformed or non-list payload is
// treated as an empty collection: absence of data must never crash a
// collection pass.
func diffPayloads(before, after json.RawMessage) (added, removed []json.RawMessage, err error) {
	beforeRaw, beforeVals := decodeRecords(before)
	afterRaw, afterVals := decodeRecords(after)

	added = []json.RawMessage{}
	for i, v := range afterVals {
		if !containsValue(beforeVals, v) {
			added = append(added, afterRaw[i])
		}
	}
	removed = []json.RawMessage{}
	for i, v := range beforeVals {
		if !containsValue(afterVals, v) {
			removed = append(removed, beforeRaw[i])
		}
	}
	return added, removed, nil
}

func decodeRecords(payload json.RawMessage) ([]json.RawMessage, []any) {
	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, nil
	}
	vals := make([]any, len(raw))
	for i, r := range raw {
		var v any
		if err := json.Unmarshal(r, &v); err != nil {
			v = string(r)
		}
		vals[i] = v
	}
	return raw, vals
}

func containsValue(haystack []any, needle any) bool {
	for _, v := range haystack {
		if reflect.DeepEqual(v, needle) {
			return true
		}
	}
	return false
}
