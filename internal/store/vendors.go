package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/HomeNetOps/homewatch/internal/scrape"
	"github.com/HomeNetOps/homewatch/pkg/models"
)

// VendorStore holds the IEEE vendor-block table. The table is bulk-replaced
// wholesale on each refresh together with its fetch timestamp; it is never
// patched incrementally.
type VendorStore struct {
	db *sql.DB
}

// NewVendorStore creates a VendorStore. The mac_vendors tables must exist
// (run VendorMigrations first).
func NewVendorStore(db *sql.DB) *VendorStore {
	return &VendorStore{db: db}
}

// VendorMigrations returns the schema migrations for the vendor store.
func VendorMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create mac_vendors tables",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS mac_vendors (
						prefix      TEXT PRIMARY KEY,
						vendor_name TEXT NOT NULL,
						block_type  TEXT NOT NULL DEFAULT '',
						private     INTEGER NOT NULL DEFAULT 0,
						last_update TEXT NOT NULL DEFAULT ''
					);
					CREATE TABLE IF NOT EXISTS mac_vendors_meta (
						id         INTEGER PRIMARY KEY CHECK (id = 1),
						fetched_at REAL NOT NULL
					);
				`)
				return err
			},
		},
	}
}

// Replace swaps the entire vendor table and its timestamp marker in one
// transaction. Entries with a prefix that is not 8, 10, or 13 colon-hex
// characters are skipped.
func (s *VendorStore) Replace(ctx context.Context, entries []models.VendorEntry, timestamp float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vendor replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mac_vendors`); err != nil {
		return fmt.Errorf("clear mac_vendors: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO mac_vendors (prefix, vendor_name, block_type, private, last_update)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare vendor insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		switch len(e.Prefix) {
		case 8, 10, 13:
		default:
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.Prefix, e.VendorName, e.BlockType, e.Private, e.LastUpdate); err != nil {
			return fmt.Errorf("insert vendor %q: %w", e.Prefix, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO mac_vendors_meta (id, fetched_at) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		timestamp,
	); err != nil {
		return fmt.Errorf("update vendor timestamp: %w", err)
	}

	return tx.Commit()
}

// Search looks up the vendor for a MAC address by longest-prefix match:
// MA-S (13 chars), then MA-M (10), then MA-L (8). Returns nil when no block
// matches.
func (s *VendorStore) Search(ctx context.Context, mac string) (*models.VendorEntry, error) {
	normalized, err := scrape.NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}

	for _, prefix := range scrape.VendorPrefixes(normalized) {
		var e models.VendorEntry
		var private int
		err := s.db.QueryRowContext(ctx, `
			SELECT prefix, vendor_name, block_type, private, last_update
			FROM mac_vendors WHERE prefix = ?`,
			prefix,
		).Scan(&e.Prefix, &e.VendorName, &e.BlockType, &private, &e.LastUpdate)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("search vendor %q: %w", prefix, err)
		}
		e.Private = private != 0
		return &e, nil
	}
	return nil, nil
}

// Timestamp returns the fetch time of the current vendor table, or 0 when
// the table has never been refreshed.
func (s *VendorStore) Timestamp(ctx context.Context) (float64, error) {
	var ts float64
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM mac_vendors_meta WHERE id = 1`).Scan(&ts)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vendor timestamp: %w", err)
	}
	return ts, nil
}

// Count returns the number of vendor entries currently stored.
func (s *VendorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mac_vendors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vendors: %w", err)
	}
	return n, nil
}
