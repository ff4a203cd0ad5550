package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creators/internal/canonical"
)

// ReplaceCanonical swaps in a new canonical table. Entry order is kept.
func (s *Store) ReplaceCanonical(ctx context.Context, entries []canonical.Entry) error {
	return s.withTx(ctx, func(tx txExecer) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM canonical_names`); err != nil {
			return fmt.Errorf("clear canonical names: %w", err)
		}
		name, err := tx.PrepareContext(ctx, `INSERT INTO canonical_names (name, seq) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare canonical insert: %w", err)
		}
		defer name.Close()
		variant, err := tx.PrepareContext(ctx, `INSERT INTO canonical_variants (name, seq, variant) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare variant insert: %w", err)
		}
		defer variant.Close()

		for i, e := range entries {
			if _, err := name.ExecContext(ctx, e.Name, i); err != nil {
				return fmt.Errorf("insert canonical name %q: %w", e.Name, err)
			}
			for j, v := range e.Variants {
				if _, err := variant.ExecContext(ctx, e.Name, j, v); err != nil {
					return fmt.Errorf("insert variant of %q: %w", e.Name, err)
				}
			}
		}
		return nil
	})
}

// Canonical loads the stored canonical table in stored order.
func (s *Store) Canonical(ctx context.Context) ([]canonical.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.name, v.variant FROM canonical_names n
         LEFT JOIN canonical_variants v ON v.name = n.name
         ORDER BY n.seq, v.seq`)
	if err != nil {
		return nil, fmt.Errorf("query canonical table: %w", err)
	}
	defer rows.Close()

	var out []canonical.Entry
	for rows.Next() {
		var (
			name    string
			variant sql.NullString
		)
		if err := rows.Scan(&name, &variant); err != nil {
			return nil, fmt.Errorf("scan canonical row: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Name != name {
			out = append(out, canonical.Entry{Name: name})
		}
		if variant.Valid {
			last := &out[len(out)-1]
			last.Variants = append(last.Variants, variant.String)
		}
	}
	return out, rows.Err()
}

const lastUpdateKey = "last_update"

// LastUpdate returns when the last successful update started. ok is false
// before the first update.
func (s *Store) LastUpdate(ctx context.Context) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM run_meta WHERE key = ?`, lastUpdateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read last update: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last update %q: %w", raw, err)
	}
	return t, true, nil
}

// SetLastUpdate records the start time of a successful update.
func (s *Store) SetLastUpdate(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_meta (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastUpdateKey, t.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record last update: %w", err)
	}
	return nil
}

// Counts summarizes table sizes for status output.
type Counts struct {
	Packages        int
	RawObservations int
	Observations    int
	CanonicalNames  int
}

// Counts returns the current table sizes.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
        (SELECT COUNT(1) FROM (SELECT DISTINCT scope, identifier, revision FROM raw_observations)),
        (SELECT COUNT(1) FROM raw_observations),
        (SELECT COUNT(1) FROM observations),
        (SELECT COUNT(1) FROM canonical_names)`).Scan(&c.Packages, &c.RawObservations, &c.Observations, &c.CanonicalNames)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}
