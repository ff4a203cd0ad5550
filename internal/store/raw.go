package store

import (
	"context"
	"database/sql"
	"fmt"

	"creators/internal/observation"
)

const rawColumns = "id, scope, identifier, revision, role, givenname, surname, organization, position, address, city, country, unique_id"

// ReplacePackages stores the observations parsed from a set of packages.
// Rows already stored for any package revision present in obs are removed
// first, so re-ingesting a document never duplicates it. Source ids are
// assigned by the database.
func (s *Store) ReplacePackages(ctx context.Context, pids []observation.PackageID, obs []observation.Observation) error {
	return s.withTx(ctx, func(tx txExecer) error {
		if err := deletePackages(ctx, tx, pids); err != nil {
			return err
		}
		insert, err := tx.PrepareContext(ctx, `INSERT INTO raw_observations (
            scope, identifier, revision, role, givenname, surname,
            organization, position, address, city, country, unique_id
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare raw insert: %w", err)
		}
		defer insert.Close()
		value, err := tx.PrepareContext(ctx, `INSERT INTO raw_observation_values (observation_id, kind, seq, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare raw value insert: %w", err)
		}
		defer value.Close()

		for _, o := range obs {
			res, err := insert.ExecContext(ctx,
				o.Package.Scope, o.Package.Identifier, o.Package.Revision, o.Role,
				o.GivenName, o.Surname, o.Organization, o.Position, o.Address,
				o.City, o.Country, o.UniqueID,
			)
			if err != nil {
				return fmt.Errorf("insert raw observation %s: %w", o.Package, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			if err := insertValues(ctx, value, id, "email", o.Emails); err != nil {
				return err
			}
			if err := insertValues(ctx, value, id, "url", o.URLs); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePackages removes every raw observation of the given package
// revisions and reports how many rows went.
func (s *Store) DeletePackages(ctx context.Context, pids []observation.PackageID) (int64, error) {
	var before, after int64
	err := s.withTx(ctx, func(tx txExecer) error {
		if err := countRows(ctx, tx, "raw_observations", &before); err != nil {
			return err
		}
		if err := deletePackages(ctx, tx, pids); err != nil {
			return err
		}
		return countRows(ctx, tx, "raw_observations", &after)
	})
	return before - after, err
}

func deletePackages(ctx context.Context, tx txExecer, pids []observation.PackageID) error {
	for _, pid := range pids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM raw_observations WHERE scope = ? AND identifier = ? AND revision = ?`,
			pid.Scope, pid.Identifier, pid.Revision,
		); err != nil {
			return fmt.Errorf("delete package %s: %w", pid, err)
		}
	}
	return nil
}

func countRows(ctx context.Context, tx txExecer, table string, dst *int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT COUNT(1) FROM `+table)
	if err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(dst); err != nil {
			return err
		}
	}
	return rows.Err()
}

func insertValues(ctx context.Context, stmt *sql.Stmt, id int64, kind string, values []string) error {
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, id, kind, i, v); err != nil {
			return fmt.Errorf("insert %s value: %w", kind, err)
		}
	}
	return nil
}

// RawObservations returns every stored raw observation in source id order.
func (s *Store) RawObservations(ctx context.Context) ([]observation.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rawColumns+` FROM raw_observations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query raw observations: %w", err)
	}
	defer rows.Close()

	var (
		out   []observation.Observation
		index = make(map[int64]int)
	)
	for rows.Next() {
		var o observation.Observation
		if err := rows.Scan(
			&o.SourceID, &o.Package.Scope, &o.Package.Identifier, &o.Package.Revision, &o.Role,
			&o.GivenName, &o.Surname, &o.Organization, &o.Position, &o.Address,
			&o.City, &o.Country, &o.UniqueID,
		); err != nil {
			return nil, fmt.Errorf("scan raw observation: %w", err)
		}
		o.Correction = observation.CodeNone
		index[o.SourceID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachValues(ctx, "raw_observation_values", out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachValues(ctx context.Context, table string, obs []observation.Observation, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT observation_id, kind, value FROM `+table+` ORDER BY observation_id, kind, seq`)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id          int64
			kind, value string
		)
		if err := rows.Scan(&id, &kind, &value); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		switch kind {
		case "email":
			obs[i].Emails = append(obs[i].Emails, value)
		case "url":
			obs[i].URLs = append(obs[i].URLs, value)
		case "keyword":
			obs[i].Keywords = append(obs[i].Keywords, value)
		}
	}
	return rows.Err()
}

// PackageRevisions lists the package revisions that have raw observations.
func (s *Store) PackageRevisions(ctx context.Context) ([]observation.PackageID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT scope, identifier, revision FROM raw_observations ORDER BY scope, identifier, revision`)
	if err != nil {
		return nil, fmt.Errorf("query package revisions: %w", err)
	}
	defer rows.Close()
	var out []observation.PackageID
	for rows.Next() {
		var pid observation.PackageID
		if err := rows.Scan(&pid.Scope, &pid.Identifier, &pid.Revision); err != nil {
			return nil, err
		}
		out = append(out, pid)
	}
	return out, rows.Err()
}
