package cluster

import "creators/internal/observation"

// IdentifierUpdate assigns an identifier to one observation.
type IdentifierUpdate struct {
	SourceID   int64
	Identifier string
	Code       observation.CorrectionCode
}

// Propagate returns an update for every member lacking an identifier in
// every cluster that agrees on exactly one. Existing identifiers are never
// replaced.
func (s *Session) Propagate() []IdentifierUpdate {
	var updates []IdentifierUpdate
	for _, c := range s.Clusters() {
		id, ok := c.Identifier()
		if !ok {
			continue
		}
		for _, sid := range c.SourceIDs() {
			if s.members[sid].UniqueID != "" {
				continue
			}
			updates = append(updates, IdentifierUpdate{
				SourceID:   sid,
				Identifier: id,
				Code:       observation.CodePropagated,
			})
		}
	}
	return updates
}
