package pgx

import (
	"context"
	"strings"

	"github.com/seekwell/atlas/pkg/evidence"
)

// EntitiesByNames resolves the given names against the tenant's entities.
// It matches exact names first (case-insensitive), then falls back to
// trigram similarity for near misses like plural forms or added legal
// suffixes. Results are deduplicated by entity id.
func (s *EvidenceDBStore) EntitiesByNames(
	ctx context.Context,
	groupID string,
	names []string,
) ([]evidence.Entity, error) {
	if len(names) == 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		if n != "" {
			lowered = append(lowered, n)
		}
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT ON (e.id)
			e.id, e.public_id, e.name, e.type, e.group_id, e.degree
		FROM entities e
		JOIN unnest($2::text[]) AS q(name) ON
			lower(e.name) = q.name OR similarity(lower(e.name), q.name) > 0.45
		WHERE e.group_id = $1
		ORDER BY e.id`,
		groupID, lowered,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []evidence.Entity
	for rows.Next() {
		var e evidence.Entity
		if err := rows.Scan(&e.ID, &e.PublicID, &e.Name, &e.Type, &e.GroupID, &e.Degree); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// TopEntitiesByDegree returns the tenant's most connected entities,
// ordered by degree descending.
func (s *EvidenceDBStore) TopEntitiesByDegree(
	ctx context.Context,
	groupID string,
	limit int,
) ([]evidence.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, public_id, name, type, group_id, degree
		FROM entities
		WHERE group_id = $1
		ORDER BY degree DESC, id
		LIMIT $2`,
		groupID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []evidence.Entity
	for rows.Next() {
		var e evidence.Entity
		if err := rows.Scan(&e.ID, &e.PublicID, &e.Name, &e.Type, &e.GroupID, &e.Degree); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// HasGraphData reports whether the tenant has any entities at all.
func (s *EvidenceDBStore) HasGraphData(ctx context.Context, groupID string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE group_id = $1)`,
		groupID,
	).Scan(&exists)
	return exists, err
}
