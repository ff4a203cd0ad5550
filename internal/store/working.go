package store

import (
	"context"
	"fmt"

	"creators/internal/cluster"
	"creators/internal/observation"
)

const workingColumns = "id, scope, identifier, revision, role, givenname, surname, surname_raw, organization, position, address, city, country, unique_id, correction_code"

// ReplaceWorking swaps the working set for obs. Rows keep the source id of
// the raw observation they were prepared from.
func (s *Store) ReplaceWorking(ctx context.Context, obs []observation.Observation) error {
	return s.withTx(ctx, func(tx txExecer) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM observations`); err != nil {
			return fmt.Errorf("clear working set: %w", err)
		}
		insert, err := tx.PrepareContext(ctx, `INSERT INTO observations (`+workingColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare working insert: %w", err)
		}
		defer insert.Close()
		value, err := tx.PrepareContext(ctx, `INSERT INTO observation_values (observation_id, kind, seq, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare working value insert: %w", err)
		}
		defer value.Close()

		for _, o := range obs {
			if _, err := insert.ExecContext(ctx,
				o.SourceID, o.Package.Scope, o.Package.Identifier, o.Package.Revision, o.Role,
				o.GivenName, o.Surname, o.SurnameRaw, o.Organization, o.Position, o.Address,
				o.City, o.Country, o.UniqueID, int(o.Correction),
			); err != nil {
				return fmt.Errorf("insert observation %d: %w", o.SourceID, err)
			}
			for _, vals := range []struct {
				kind   string
				values []string
			}{{"email", o.Emails}, {"url", o.URLs}, {"keyword", o.Keywords}} {
				if err := insertValues(ctx, value, o.SourceID, vals.kind, vals.values); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WorkingObservations returns the working set in source id order.
func (s *Store) WorkingObservations(ctx context.Context) ([]observation.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workingColumns+` FROM observations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var (
		out   []observation.Observation
		index = make(map[int64]int)
	)
	for rows.Next() {
		var (
			o    observation.Observation
			code int
		)
		if err := rows.Scan(
			&o.SourceID, &o.Package.Scope, &o.Package.Identifier, &o.Package.Revision, &o.Role,
			&o.GivenName, &o.Surname, &o.SurnameRaw, &o.Organization, &o.Position, &o.Address,
			&o.City, &o.Country, &o.UniqueID, &code,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Correction = observation.CorrectionCode(code)
		index[o.SourceID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachValues(ctx, "observation_values", out, index); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyIdentifierUpdates writes propagated identifiers. A row that already
// carries an identifier is left alone. It returns the number of rows
// changed.
func (s *Store) ApplyIdentifierUpdates(ctx context.Context, updates []cluster.IdentifierUpdate) (int64, error) {
	var changed int64
	err := s.withTx(ctx, func(tx txExecer) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE observations SET unique_id = ?, correction_code = ? WHERE id = ? AND unique_id = ''`)
		if err != nil {
			return fmt.Errorf("prepare identifier update: %w", err)
		}
		defer stmt.Close()
		for _, u := range updates {
			res, err := stmt.ExecContext(ctx, u.Identifier, int(u.Code), u.SourceID)
			if err != nil {
				return fmt.Errorf("update identifier of %d: %w", u.SourceID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			changed += n
		}
		return nil
	})
	return changed, err
}

// ScopeNames returns the distinct "surname, givenname" spellings of
// creators in the working set for one scope, in byte order.
func (s *Store) ScopeNames(ctx context.Context, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT surname, givenname FROM observations
         WHERE scope = ? AND role = ? AND surname != ''
         ORDER BY surname, givenname`,
		scope, observation.RoleCreator,
	)
	if err != nil {
		return nil, fmt.Errorf("query scope names: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var o observation.Observation
		if err := rows.Scan(&o.Surname, &o.GivenName); err != nil {
			return nil, err
		}
		out = append(out, o.Name())
	}
	return out, rows.Err()
}
